package orders

import (
	"context"
	"fmt"

	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/parties"
	"orderledger/pkg/logger"
)

// ReconcileReport describes one party reconciliation.
type ReconcileReport struct {
	PartyID        id.ID           `json:"partyId"`
	Kind           parties.Kind    `json:"kind"`
	OrdersChecked  int             `json:"ordersChecked"`
	OrdersRepaired int             `json:"ordersRepaired"`
	Before         parties.Balance `json:"before"`
	After          parties.Balance `json:"after"`
	Drift          parties.Balance `json:"drift"`
}

// HasDrift reports whether the stored totals were wrong.
func (r ReconcileReport) HasDrift() bool {
	return !r.Drift.IsZero()
}

// Reconcile recomputes every live order of the party from its payments and
// deliveries, then overwrites the party totals with their sum. It repairs drift
// left by any write path that bypassed the incremental accumulator.
//
// Lock order is orders (by id) then party, the same as the incremental path.
func (s *Service) Reconcile(ctx context.Context, partyID id.ID) (*ReconcileReport, error) {
	report := &ReconcileReport{PartyID: partyID, Kind: s.kind.PartyKind()}

	err := s.withPartyLock(ctx, partyID, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			ids, err := s.repo.LockByParty(ctx, partyID)
			if err != nil {
				return fmt.Errorf("lock party orders: %w", err)
			}

			sum := parties.Balance{Paid: types.Zero(), Due: types.Zero()}
			for _, orderID := range ids {
				o, err := s.lockOrder(ctx, orderID)
				if err != nil {
					return err
				}
				repaired, err := s.recomputeOnly(ctx, o)
				if err != nil {
					return err
				}
				report.OrdersChecked++
				if repaired {
					report.OrdersRepaired++
				}
				sum = sum.Add(o.Contribution())
			}

			p, err := s.parties.LockForUpdate(ctx, partyID)
			if err != nil {
				return err
			}
			report.Before = p.Balance()
			report.After = sum
			report.Drift = sum.Sub(report.Before)

			if report.Before.Equal(sum) {
				return nil
			}
			return s.parties.OverwriteTotals(ctx, partyID, report.Before, sum)
		})
	})
	if err != nil {
		return nil, err
	}

	if report.HasDrift() || report.OrdersRepaired > 0 {
		logger.Warn(ctx, "party totals reconciled with drift",
			"party_id", partyID,
			"kind", report.Kind,
			"drift_paid", report.Drift.Paid.String(),
			"drift_due", report.Drift.Due.String(),
			"orders_repaired", report.OrdersRepaired,
		)
	} else {
		logger.Info(ctx, "party totals reconciled", "party_id", partyID, "orders", report.OrdersChecked)
	}
	return report, nil
}

// ReconcileAll reconciles every live party of this service's kind, one
// transaction per party. It stops at the first error.
func (s *Service) ReconcileAll(ctx context.Context) ([]ReconcileReport, error) {
	ids, err := s.parties.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]ReconcileReport, 0, len(ids))
	for _, partyID := range ids {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r, err := s.Reconcile(ctx, partyID)
		if err != nil {
			return reports, fmt.Errorf("reconcile party %s: %w", partyID, err)
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// RefreshStatuses recomputes every unpaid order so that aging-dependent payment
// statuses move forward with time. It returns how many orders changed status.
func (s *Service) RefreshStatuses(ctx context.Context) (int, error) {
	ids, err := s.repo.ListUnpaidIDs(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, orderID := range ids {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		var before PaymentStatus
		o, err := s.mutate(ctx, orderID, "status refresh", func(ctx context.Context, o *Order) error {
			before = o.PaymentStatus
			return nil
		})
		if err != nil {
			return changed, fmt.Errorf("refresh order %s: %w", orderID, err)
		}
		if o.PaymentStatus != before {
			changed++
		}
	}
	return changed, nil
}

// recomputeOnly re-derives a locked order and persists it when the cached
// summary was stale, without touching the party. It reports whether it wrote.
func (s *Service) recomputeOnly(ctx context.Context, o *Order) (bool, error) {
	if err := s.loadChildren(ctx, o); err != nil {
		return false, err
	}
	before := o.Summary()

	itemsChanged := false
	for _, it := range o.Items {
		if TrackDeliveries(it) {
			itemsChanged = true
			it.UpdatedAt = s.now()
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return false, fmt.Errorf("update order item: %w", err)
			}
		}
	}

	after := s.deriver.Derive(o)
	if after.Equal(before) && !itemsChanged {
		return false, nil
	}
	o.Apply(after)
	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return false, fmt.Errorf("update %s: %w", s.entityName(), err)
	}
	return true, nil
}
