package parties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain"
)

type memRepo struct {
	rows map[id.ID]*Party
}

func newMemRepo() *memRepo { return &memRepo{rows: map[id.ID]*Party{}} }

func (r *memRepo) Create(ctx context.Context, p *Party) error {
	c := *p
	r.rows[p.ID] = &c
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, partyID id.ID) (*Party, error) {
	p, ok := r.rows[partyID]
	if !ok {
		return nil, apperror.NewNotFound("party", partyID)
	}
	c := *p
	return &c, nil
}

func (r *memRepo) Update(ctx context.Context, p *Party) error { return r.Create(ctx, p) }

func (r *memRepo) Delete(ctx context.Context, partyID id.ID) error {
	r.rows[partyID].DeletionMark = true
	return nil
}

func (r *memRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Party], error) {
	return domain.ListResult[*Party]{}, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, partyID id.ID) (*Party, error) {
	return r.GetByID(ctx, partyID)
}

func (r *memRepo) AdjustTotals(ctx context.Context, partyID id.ID, delta Balance) (Balance, error) {
	p, ok := r.rows[partyID]
	if !ok {
		return Balance{}, apperror.NewNotFound("party", partyID)
	}
	p.TotalPaid = p.TotalPaid.Add(delta.Paid)
	p.TotalDue = p.TotalDue.Add(delta.Due)
	return p.Balance(), nil
}

func (r *memRepo) SetTotals(ctx context.Context, partyID id.ID, totals Balance) error {
	r.rows[partyID].TotalPaid = totals.Paid
	r.rows[partyID].TotalDue = totals.Due
	return nil
}

func (r *memRepo) ListIDs(ctx context.Context) ([]id.ID, error) {
	ids := make([]id.ID, 0, len(r.rows))
	for k := range r.rows {
		ids = append(ids, k)
	}
	return ids, nil
}

type memJournal struct{ entries []JournalEntry }

func (j *memJournal) Record(ctx context.Context, e JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func strPtr(s string) *string { return &s }

func bal(paid, due string) Balance {
	return Balance{Paid: types.MustMoney(paid), Due: types.MustMoney(due)}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"local mobile", "0712345678", "+254712345678", false},
		{"international", "+254 712 345 678", "+254712345678", false},
		{"too short", "12", "", true},
		{"letters", "call me", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, DefaultPhoneRegion)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_CreateNormalizesPhone(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(Config{Kind: KindCustomer, Repo: repo})

	p := NewParty(KindCustomer, "  Jane Wanjiru ")
	p.ContactPhone = strPtr("0712 345 678")
	p.Email = strPtr("jane@example.com")
	require.NoError(t, svc.Create(context.Background(), p))

	stored, err := svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Wanjiru", stored.Name)
	require.NotNil(t, stored.ContactPhone)
	assert.Equal(t, "+254712345678", *stored.ContactPhone)
	assert.True(t, stored.TotalPaid.IsZero())
}

func TestService_CreateRejects(t *testing.T) {
	svc := NewService(Config{Kind: KindCustomer, Repo: newMemRepo()})
	ctx := context.Background()

	wrongKind := NewParty(KindSupplier, "Supplier Co")
	assert.True(t, apperror.HasCode(svc.Create(ctx, wrongKind), apperror.CodeValidation))

	noName := NewParty(KindCustomer, "   ")
	assert.True(t, apperror.HasCode(svc.Create(ctx, noName), apperror.CodeValidation))

	badEmail := NewParty(KindCustomer, "Jane")
	badEmail.Email = strPtr("not-an-email")
	assert.True(t, apperror.HasCode(svc.Create(ctx, badEmail), apperror.CodeValidation))

	badCurrency := NewParty(KindCustomer, "Jane")
	badCurrency.Currency = "shillings"
	assert.True(t, apperror.HasCode(svc.Create(ctx, badCurrency), apperror.CodeValidation))
}

func TestService_DeleteWithOrdersIsConflict(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(Config{Kind: KindSupplier, Repo: repo})
	ctx := context.Background()

	p := NewParty(KindSupplier, "Mills Ltd")
	require.NoError(t, svc.Create(ctx, p))
	repo.rows[p.ID].TotalOrders = 2

	err := svc.Delete(ctx, p.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict), "got %v", err)

	repo.rows[p.ID].TotalOrders = 0
	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.True(t, repo.rows[p.ID].DeletionMark)
}

func TestService_Adjust(t *testing.T) {
	repo := newMemRepo()
	journal := &memJournal{}
	svc := NewService(Config{Kind: KindCustomer, Repo: repo, Journal: journal})
	ctx := context.Background()

	p := NewParty(KindCustomer, "Jane")
	require.NoError(t, svc.Create(ctx, p))
	orderID := id.New()

	after, err := svc.Adjust(ctx, p.ID, bal("0", "250"), orderID, "order created")
	require.NoError(t, err)
	assert.True(t, after.Equal(bal("0", "250")))

	after, err = svc.Adjust(ctx, p.ID, bal("100", "0"), orderID, "payment applied")
	require.NoError(t, err)
	assert.True(t, after.Equal(bal("100", "250")))

	// zero deltas are not journaled
	_, err = svc.Adjust(ctx, p.ID, bal("0", "0"), orderID, "noop")
	require.NoError(t, err)

	require.Len(t, journal.entries, 2)
	assert.Equal(t, JournalAdjust, journal.entries[1].Action)
	assert.Equal(t, orderID, *journal.entries[1].OrderID)

	_, err = svc.Adjust(ctx, id.New(), bal("1", "0"), orderID, "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_OverwriteTotals(t *testing.T) {
	repo := newMemRepo()
	journal := &memJournal{}
	svc := NewService(Config{Kind: KindCustomer, Repo: repo, Journal: journal})
	ctx := context.Background()

	p := NewParty(KindCustomer, "Jane")
	require.NoError(t, svc.Create(ctx, p))

	require.NoError(t, svc.OverwriteTotals(ctx, p.ID, bal("999", "0"), bal("60", "250")))

	locked, err := svc.LockForUpdate(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, locked.Balance().Equal(bal("60", "250")))
	require.Len(t, journal.entries, 1)
	assert.Equal(t, JournalReconcile, journal.entries[0].Action)
	assert.True(t, journal.entries[0].Delta.Equal(bal("-939", "250")))
}

func TestBalance_Arithmetic(t *testing.T) {
	a, b := bal("10", "20"), bal("3", "5")

	assert.True(t, a.Add(b).Equal(bal("13", "25")))
	assert.True(t, a.Sub(b).Equal(bal("7", "15")))
	assert.True(t, a.Neg().Equal(bal("-10", "-20")))
	assert.True(t, a.Sub(a).IsZero())
}
