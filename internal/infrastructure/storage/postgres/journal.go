package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "orderledger/internal/core/context"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/parties"
)

// CompressionAlgo specifies how a journal payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which entries are zstd-compressed.
const DefaultCompressThreshold = 4 * 1024

// journalChanges is the JSON payload of a balance journal entry.
type journalChanges struct {
	OrderID *id.ID          `json:"orderId,omitempty"`
	Cause   string          `json:"cause"`
	Delta   parties.Balance `json:"delta"`
	After   parties.Balance `json:"after"`
}

type journalMetadata struct {
	TraceID   string `json:"traceId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// HistoryEntry is one decoded row of a party's balance journal.
type HistoryEntry struct {
	ID        id.ID                 `json:"id"`
	PartyID   id.ID                 `json:"partyId"`
	Kind      parties.Kind          `json:"kind"`
	Action    parties.JournalAction `json:"action"`
	OrderID   *id.ID                `json:"orderId,omitempty"`
	Cause     string                `json:"cause"`
	Delta     parties.Balance       `json:"delta"`
	After     parties.Balance       `json:"after"`
	RequestID string                `json:"requestId,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Journal writes party balance changes to sys_audit in the caller's transaction.
// It implements parties.Journal.
type Journal struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ parties.Journal = (*Journal)(nil)

// NewJournal creates a balance journal.
func NewJournal(txManager *TxManager) (*Journal, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Journal{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Record implements parties.Journal.
func (j *Journal) Record(ctx context.Context, e parties.JournalEntry) error {
	changes, err := json.Marshal(journalChanges{
		OrderID: e.OrderID,
		Cause:   e.Cause,
		Delta:   e.Delta,
		After:   e.After,
	})
	if err != nil {
		return fmt.Errorf("marshal journal changes: %w", err)
	}

	var meta journalMetadata
	if t := appctx.GetTrace(ctx); t != nil {
		meta.TraceID = t.TraceID
		meta.RequestID = t.RequestID
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal journal metadata: %w", err)
	}

	payload, compressed, algo := j.encode(changes)

	_, err = j.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action,
			changes, changes_compressed, compression_algo, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id.New(), string(e.Kind), e.PartyID, string(e.Action),
		payload, compressed, algo, metadata, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (j *Journal) encode(changes []byte) (json.RawMessage, []byte, CompressionAlgo) {
	if len(changes) <= j.compressThreshold {
		return changes, nil, CompressionNone
	}
	return nil, j.encoder.EncodeAll(changes, nil), CompressionZstd
}

func (j *Journal) decode(changes json.RawMessage, compressed []byte, algo CompressionAlgo) ([]byte, error) {
	if algo == CompressionZstd && len(compressed) > 0 {
		out, err := j.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes: %w", err)
		}
		return out, nil
	}
	return changes, nil
}

// History returns the newest journal entries of a party.
func (j *Journal) History(ctx context.Context, kind parties.Kind, partyID id.ID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := j.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_id, action, changes, changes_compressed, compression_algo, metadata, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, string(kind), partyID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e          HistoryEntry
			action     string
			changes    []byte
			compressed []byte
			algo       string
			metadata   []byte
		)
		if err := rows.Scan(&e.ID, &e.PartyID, &action, &changes, &compressed, &algo, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		raw, err := j.decode(changes, compressed, CompressionAlgo(algo))
		if err != nil {
			return nil, err
		}
		var c journalChanges
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode changes: %w", err)
		}
		var m journalMetadata
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &m)
		}

		e.Kind = kind
		e.Action = parties.JournalAction(action)
		e.OrderID = c.OrderID
		e.Cause = c.Cause
		e.Delta = c.Delta
		e.After = c.After
		e.RequestID = m.RequestID
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
