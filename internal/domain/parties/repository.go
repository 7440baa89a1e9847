package parties

import (
	"context"

	"orderledger/internal/core/id"
	"orderledger/internal/domain"
)

// Repository persists parties of one kind.
type Repository interface {
	domain.CatalogRepository[*Party]

	// GetForUpdate reads the party and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Party, error)

	// AdjustTotals atomically adds delta to the stored totals and returns the result.
	AdjustTotals(ctx context.Context, id id.ID, delta Balance) (Balance, error)

	// SetTotals overwrites the stored totals. Used only by reconciliation.
	SetTotals(ctx context.Context, id id.ID, totals Balance) error

	// ListIDs returns the ids of all live parties.
	ListIDs(ctx context.Context) ([]id.ID, error)
}

// JournalAction names a balance change recorded in the journal.
type JournalAction string

const (
	JournalAdjust    JournalAction = "adjust"
	JournalReconcile JournalAction = "reconcile"
)

// JournalEntry describes one change of a party's totals.
type JournalEntry struct {
	PartyID id.ID
	Kind    Kind
	Action  JournalAction
	OrderID *id.ID
	Cause   string
	Delta   Balance
	After   Balance
}

// Journal records balance changes. Implemented by the audit log.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

type nopJournal struct{}

func (nopJournal) Record(context.Context, JournalEntry) error { return nil }
