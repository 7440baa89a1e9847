package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/parties"
	"orderledger/internal/infrastructure/storage/postgres"
)

const partyTable = "parties"

// totalOrdersExpr counts live orders of the party row being selected.
const totalOrdersExpr = `(SELECT COUNT(*) FROM orders o WHERE o.party_id = parties.id AND o.deletion_mark = false) AS total_orders`

// PartyRepo implements parties.Repository for one party kind.
type PartyRepo struct {
	*BaseCatalogRepo[*parties.Party]
	kind parties.Kind
}

var _ parties.Repository = (*PartyRepo)(nil)

// NewPartyRepo creates a repository bound to kind.
func NewPartyRepo(txm *postgres.TxManager, kind parties.Kind) *PartyRepo {
	writeCols := postgres.Without(postgres.ExtractDBColumns[parties.Party](), "total_orders")
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, BaseConfig[*parties.Party]{
			TableName:  partyTable,
			EntityName: string(kind),
			SelectCols: append(append([]string{}, writeCols...), totalOrdersExpr),
			WriteCols:  writeCols,
			// totals move only through AdjustTotals and SetTotals
			Immutable:    []string{"kind", "total_paid", "total_due"},
			SearchCols:   []string{"name", "email", "contact_phone"},
			Scope:        squirrel.Eq{"kind": string(kind)},
			DefaultOrder: "name ASC",
			New:          func() *parties.Party { return &parties.Party{} },
		}),
		kind: kind,
	}
}

// AdjustTotals atomically adds delta to the stored totals.
func (r *PartyRepo) AdjustTotals(ctx context.Context, partyID id.ID, delta parties.Balance) (parties.Balance, error) {
	var after parties.Balance
	err := r.Querier(ctx).QueryRow(ctx, `
		UPDATE parties
		SET total_paid = total_paid + $1,
		    total_due = total_due + $2,
		    updated_at = NOW()
		WHERE id = $3 AND kind = $4
		RETURNING total_paid, total_due
	`, delta.Paid, delta.Due, partyID, string(r.kind)).Scan(&after.Paid, &after.Due)
	if err == pgx.ErrNoRows {
		return after, apperror.NewNotFound(string(r.kind), partyID.String())
	}
	if err != nil {
		return after, postgres.MapError(fmt.Errorf("adjust %s totals: %w", r.kind, err), string(r.kind))
	}
	return after, nil
}

// SetTotals overwrites the stored totals.
func (r *PartyRepo) SetTotals(ctx context.Context, partyID id.ID, totals parties.Balance) error {
	result, err := r.Querier(ctx).Exec(ctx, `
		UPDATE parties
		SET total_paid = $1,
		    total_due = $2,
		    updated_at = NOW()
		WHERE id = $3 AND kind = $4
	`, totals.Paid, totals.Due, partyID, string(r.kind))
	if err != nil {
		return postgres.MapError(fmt.Errorf("set %s totals: %w", r.kind, err), string(r.kind))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(string(r.kind), partyID.String())
	}
	return nil
}
