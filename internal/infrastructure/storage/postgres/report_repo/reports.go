// Package report_repo provides the PostgreSQL implementation of reports.Repository.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
	"orderledger/internal/domain/reports"
	"orderledger/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm *postgres.TxManager
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

const dashboardQuery = `
	SELECT
		(SELECT COUNT(*) FROM parties WHERE kind = 'customer' AND deletion_mark = false) AS customers,
		(SELECT COUNT(*) FROM parties WHERE kind = 'supplier' AND deletion_mark = false) AS suppliers,
		(SELECT COUNT(*) FROM inventory_items WHERE deletion_mark = false) AS items,
		COUNT(*) FILTER (WHERE o.kind = 'sales') AS sales_orders,
		COUNT(*) FILTER (WHERE o.kind = 'supply') AS supply_orders,
		COALESCE(SUM(o.total_paid) FILTER (WHERE o.kind = 'sales'), 0) AS revenue,
		COALESCE(SUM(o.total_paid) FILTER (WHERE o.kind = 'supply'), 0) AS expenditure,
		COUNT(*) FILTER (WHERE o.order_status <> $1) AS pending_deliveries,
		COUNT(*) FILTER (WHERE o.kind = 'sales' AND o.payment_status <> $2) AS unpaid_sales,
		COUNT(*) FILTER (WHERE o.kind = 'supply' AND o.payment_status <> $2) AS unpaid_supply,
		COUNT(DISTINCT o.party_id) FILTER (WHERE o.kind = 'sales' AND o.payment_status <> $2) AS unpaid_customers,
		COUNT(DISTINCT o.party_id) FILTER (WHERE o.kind = 'supply' AND o.payment_status <> $2) AS unpaid_suppliers
	FROM orders o
	WHERE o.deletion_mark = false
`

const lowStockQuery = `
	SELECT id, item_name, sku, quantity, min_threshold
	FROM inventory_items
	WHERE deletion_mark = false
	  AND manage_stock = true
	  AND item_status = 'active'
	  AND quantity <= min_threshold
	ORDER BY quantity ASC, item_name ASC
	LIMIT $1
`

// GetDashboard computes the dashboard in one read-only transaction so the
// figures come from a single snapshot.
func (r *ReportRepo) GetDashboard(ctx context.Context, lowStockLimit int) (*reports.Dashboard, error) {
	d := &reports.Dashboard{}

	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		querier := r.txm.GetQuerier(ctx)

		err := querier.QueryRow(ctx, dashboardQuery, string(orders.OrderComplete), string(orders.PaymentPaid)).Scan(
			&d.Customers, &d.Suppliers, &d.Items,
			&d.SalesOrders, &d.SupplyOrders,
			&d.Revenue, &d.Expenditure,
			&d.PendingDeliveries,
			&d.UnpaidSales, &d.UnpaidSupply,
			&d.UnpaidCustomers, &d.UnpaidSuppliers,
		)
		if err != nil {
			return fmt.Errorf("dashboard counts: %w", err)
		}

		d.LowStock = []reports.LowStockItem{}
		if err := pgxscan.Select(ctx, querier, &d.LowStock, lowStockQuery, lowStockLimit); err != nil {
			return fmt.Errorf("dashboard low stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetStatement reads a party with its live orders and their payments.
func (r *ReportRepo) GetStatement(ctx context.Context, kind parties.Kind, partyID id.ID) (*reports.Statement, error) {
	st := &reports.Statement{PartyID: partyID, Kind: kind}

	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		querier := r.txm.GetQuerier(ctx)

		err := querier.QueryRow(ctx, `
			SELECT name, currency, total_paid, total_due
			FROM parties
			WHERE id = $1 AND kind = $2 AND deletion_mark = false
		`, partyID, string(kind)).Scan(&st.Name, &st.Currency, &st.TotalPaid, &st.TotalDue)
		if err == pgx.ErrNoRows {
			return apperror.NewNotFound(string(kind), partyID.String())
		}
		if err != nil {
			return fmt.Errorf("statement party: %w", err)
		}

		if err := pgxscan.Select(ctx, querier, &st.Orders, `
			SELECT id, order_code, order_date, order_value, total_paid, amount_due, payment_status, order_status
			FROM orders
			WHERE party_id = $1 AND deletion_mark = false
			ORDER BY order_date, order_code
		`, partyID); err != nil {
			return fmt.Errorf("statement orders: %w", err)
		}

		if err := pgxscan.Select(ctx, querier, &st.Payments, `
			SELECT o.order_code, p.payment_code, p.date_paid, p.amount_paid, p.notes
			FROM payments p
			JOIN orders o ON o.id = p.order_id
			WHERE o.party_id = $1 AND o.deletion_mark = false
			ORDER BY p.date_paid, p.payment_code
		`, partyID); err != nil {
			return fmt.Errorf("statement payments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
