// Package order_repo provides the PostgreSQL implementation of orders.Repository:
// order headers, lines, deliveries and payments.
package order_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/domain"
	"orderledger/internal/domain/orders"
	"orderledger/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	itemsTable      = "order_items"
	deliveriesTable = "deliveries"
	paymentsTable   = "payments"
)

var (
	orderCols    = postgres.ExtractDBColumns[orders.Order]()
	itemCols     = postgres.ExtractDBColumns[orders.OrderItem]()
	deliveryCols = postgres.ExtractDBColumns[orders.Delivery]()
	paymentCols  = postgres.ExtractDBColumns[orders.Payment]()

	// header columns fixed at creation
	orderImmutable = []string{"id", "kind", "party_id", "seq_no", "order_code", "created_at", "version", "updated_at", "deletion_mark"}

	sortableOrderCols = map[string]struct{}{
		"order_code": {}, "order_date": {}, "created_at": {}, "updated_at": {},
		"order_value": {}, "amount_due": {}, "total_paid": {}, "party_name": {},
	}
)

// OrderRepo implements orders.Repository for one order kind.
type OrderRepo struct {
	txm  *postgres.TxManager
	kind orders.Kind
}

var _ orders.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a repository bound to kind.
func NewOrderRepo(txm *postgres.TxManager, kind orders.Kind) *OrderRepo {
	return &OrderRepo{txm: txm, kind: kind}
}

// Builder returns a new squirrel builder.
func (r *OrderRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *OrderRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *OrderRepo) entityName() string {
	return string(r.kind) + " order"
}

func (r *OrderRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(orderCols...).
		From(ordersTable).
		Where(squirrel.Eq{"kind": string(r.kind)})
}

// Create inserts the order header.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	sql, args, err := r.Builder().
		Insert(ordersTable).
		SetMap(postgres.ColumnValues(o, orderCols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", ordersTable, err), r.entityName())
	}
	return nil
}

// GetByID retrieves an order header by ID.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": orderID}), orderID)
}

// GetForUpdate retrieves an order header with row lock.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": orderID}).Suffix("FOR UPDATE"), orderID)
}

func (r *OrderRepo) get(ctx context.Context, q squirrel.SelectBuilder, orderID id.ID) (*orders.Order, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	o := &orders.Order{}
	if err := pgxscan.Get(ctx, r.querier(ctx), o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName(), orderID.String())
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName(), err)
	}
	return o, nil
}

// Update writes the header and cached summary with optimistic locking.
func (r *OrderRepo) Update(ctx context.Context, o *orders.Order) error {
	q := r.Builder().
		Update(ordersTable).
		SetMap(postgres.ColumnValues(o, postgres.Without(orderCols, orderImmutable...))).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": o.ID, "version": o.Version, "kind": string(r.kind)})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", ordersTable, err), r.entityName())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName(), o.ID)
	}

	o.Version++
	return nil
}

// Delete soft-deletes an order.
func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	sql, args, err := r.Builder().
		Update(ordersTable).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": orderID, "kind": string(r.kind), "deletion_mark": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ordersTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName(), orderID.String())
	}
	return nil
}

// List retrieves order headers with filtering and pagination.
func (r *OrderRepo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	result := domain.ListResult[*orders.Order]{
		Items:  []*orders.Order{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.applyFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", ordersTable, err)
	}
	return result, nil
}

func (r *OrderRepo) applyFilter(q squirrel.SelectBuilder, filter orders.ListFilter) squirrel.SelectBuilder {
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"party_name": pattern},
			squirrel.Expr("order_code::text LIKE ?", pattern),
		})
	}
	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": string(*filter.PaymentStatus)})
	}
	if filter.OrderStatus != nil {
		q = q.Where(squirrel.Eq{"order_status": string(*filter.OrderStatus)})
	}
	return q
}

func parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "order_code DESC", nil
	}
	direction := "ASC"
	field := strings.TrimPrefix(orderBy, "+")
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	}
	if _, ok := sortableOrderCols[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

// LockByParty locks every live order of the party in id order.
func (r *OrderRepo) LockByParty(ctx context.Context, partyID id.ID) ([]id.ID, error) {
	sql, args, err := r.Builder().
		Select("id").
		From(ordersTable).
		Where(squirrel.Eq{"party_id": partyID, "kind": string(r.kind), "deletion_mark": false}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("lock party orders: %w", err)
	}
	return ids, nil
}

// ListUnpaidIDs returns live orders whose cached payment status is not paid.
func (r *OrderRepo) ListUnpaidIDs(ctx context.Context) ([]id.ID, error) {
	sql, args, err := r.Builder().
		Select("id").
		From(ordersTable).
		Where(squirrel.Eq{"kind": string(r.kind), "deletion_mark": false}).
		Where(squirrel.NotEq{"payment_status": string(orders.PaymentPaid)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list unpaid orders: %w", err)
	}
	return ids, nil
}
