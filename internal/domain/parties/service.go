package parties

import (
	"context"
	"strings"

	"github.com/ttacon/libphonenumber"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/tx"
	"orderledger/internal/domain"
	"orderledger/pkg/logger"
)

// DefaultPhoneRegion is used to parse numbers written without a country prefix.
const DefaultPhoneRegion = "KE"

// Service provides CRUD and balance bookkeeping for one kind of party.
type Service struct {
	*domain.CatalogService[*Party]
	repo        Repository
	kind        Kind
	phoneRegion string
	journal     Journal
}

// Config configures the party service.
type Config struct {
	Kind        Kind
	Repo        Repository
	TxManager   tx.Manager
	PhoneRegion string
	Journal     Journal
}

// NewService creates a party service bound to cfg.Kind.
func NewService(cfg Config) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Party]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		EntityName: string(cfg.Kind),
	})

	region := cfg.PhoneRegion
	if region == "" {
		region = DefaultPhoneRegion
	}
	journal := cfg.Journal
	if journal == nil {
		journal = nopJournal{}
	}

	svc := &Service{
		CatalogService: base,
		repo:           cfg.Repo,
		kind:           cfg.Kind,
		phoneRegion:    region,
		journal:        journal,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepare)
	base.Hooks().On(domain.BeforeUpdate, svc.prepare)
	base.Hooks().On(domain.BeforeDelete, svc.ensureNoOrders)

	return svc
}

// Kind returns the kind of party this service manages.
func (s *Service) Kind() Kind {
	return s.kind
}

func (s *Service) prepare(ctx context.Context, p *Party) error {
	if p.Kind != s.kind {
		return apperror.NewFieldValidation("kind", "party kind does not match endpoint").
			WithDetail("expected", string(s.kind))
	}
	if p.ContactPhone == nil {
		return nil
	}
	raw := strings.TrimSpace(*p.ContactPhone)
	if raw == "" {
		p.ContactPhone = nil
		return nil
	}
	normalized, err := NormalizePhone(raw, s.phoneRegion)
	if err != nil {
		return err
	}
	p.ContactPhone = &normalized
	return nil
}

func (s *Service) ensureNoOrders(ctx context.Context, p *Party) error {
	if p.TotalOrders > 0 {
		return apperror.NewConflict("party has orders and cannot be deleted").
			WithDetail("total_orders", p.TotalOrders)
	}
	return nil
}

// NormalizePhone parses raw in region and formats it as E.164.
func NormalizePhone(raw, region string) (string, error) {
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", apperror.NewFieldValidation("contactPhone", "invalid phone number").
			WithDetail("value", raw).WithCause(err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", apperror.NewFieldValidation("contactPhone", "invalid phone number").
			WithDetail("value", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// Adjust adds delta to the party's running totals. It is called only from the
// order save path, inside the caller's transaction.
func (s *Service) Adjust(ctx context.Context, partyID id.ID, delta Balance, orderID id.ID, cause string) (Balance, error) {
	if delta.IsZero() {
		return Balance{}, nil
	}
	after, err := s.repo.AdjustTotals(ctx, partyID, delta)
	if err != nil {
		return Balance{}, s.NormalizeGetErr(err, partyID.String())
	}

	logger.Debug(ctx, "party totals adjusted",
		"party_id", partyID,
		"kind", s.kind,
		"delta_paid", delta.Paid.String(),
		"delta_due", delta.Due.String(),
		"cause", cause,
	)

	oid := orderID
	err = s.journal.Record(ctx, JournalEntry{
		PartyID: partyID,
		Kind:    s.kind,
		Action:  JournalAdjust,
		OrderID: &oid,
		Cause:   cause,
		Delta:   delta,
		After:   after,
	})
	if err != nil {
		return Balance{}, err
	}
	return after, nil
}

// LockForUpdate reads the party with a row lock.
func (s *Service) LockForUpdate(ctx context.Context, partyID id.ID) (*Party, error) {
	p, err := s.repo.GetForUpdate(ctx, partyID)
	if err != nil {
		return nil, s.NormalizeGetErr(err, partyID.String())
	}
	return p, nil
}

// OverwriteTotals replaces the party totals with values recomputed from scratch
// and journals the drift that was corrected.
func (s *Service) OverwriteTotals(ctx context.Context, partyID id.ID, before, after Balance) error {
	if err := s.repo.SetTotals(ctx, partyID, after); err != nil {
		return s.NormalizeGetErr(err, partyID.String())
	}
	return s.journal.Record(ctx, JournalEntry{
		PartyID: partyID,
		Kind:    s.kind,
		Action:  JournalReconcile,
		Cause:   "reconcile",
		Delta:   after.Sub(before),
		After:   after,
	})
}

// ListIDs returns all live party ids of this kind.
func (s *Service) ListIDs(ctx context.Context) ([]id.ID, error) {
	return s.repo.ListIDs(ctx)
}
