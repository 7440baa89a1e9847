package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/orders"
	"orderledger/internal/infrastructure/storage/postgres"
)

// GetItems returns the lines of an order with their deliveries attached.
func (r *OrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]*orders.OrderItem, error) {
	sql, args, err := r.Builder().
		Select(itemCols...).
		From(itemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.querier(ctx)
	items := []*orders.OrderItem{}
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	byID := make(map[id.ID]*orders.OrderItem, len(items))
	itemIDs := make([]id.ID, 0, len(items))
	for _, it := range items {
		it.Deliveries = []*orders.Delivery{}
		byID[it.ID] = it
		itemIDs = append(itemIDs, it.ID)
	}

	sql, args, err = r.Builder().
		Select(deliveryCols...).
		From(deliveriesTable).
		Where(squirrel.Eq{"order_item_id": itemIDs}).
		OrderBy("delivery_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var deliveries []*orders.Delivery
	if err := pgxscan.Select(ctx, querier, &deliveries, sql, args...); err != nil {
		return nil, fmt.Errorf("get deliveries: %w", err)
	}
	for _, d := range deliveries {
		if it, ok := byID[d.OrderItemID]; ok {
			it.Deliveries = append(it.Deliveries, d)
		}
	}
	return items, nil
}

// CreateItem inserts an order line.
func (r *OrderRepo) CreateItem(ctx context.Context, it *orders.OrderItem) error {
	return r.insert(ctx, itemsTable, "order item", postgres.ColumnValues(it, itemCols))
}

// UpdateItem writes quantity, price and the derived delivery columns.
func (r *OrderRepo) UpdateItem(ctx context.Context, it *orders.OrderItem) error {
	return r.update(ctx, itemsTable, "order item", it.ID, map[string]any{
		"quantity_ordered":   it.QuantityOrdered,
		"unit_price":         it.UnitPrice,
		"quantity_delivered": it.QuantityDelivered,
		"is_delivered":       it.IsDelivered,
		"last_delivery_date": it.LastDeliveryDate,
		"updated_at":         it.UpdatedAt,
	})
}

// DeleteItem removes the line and its deliveries.
func (r *OrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	querier := r.querier(ctx)
	if _, err := querier.Exec(ctx, `DELETE FROM deliveries WHERE order_item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete item deliveries: %w", err)
	}
	return r.remove(ctx, itemsTable, "order item", itemID)
}

// CreateDelivery inserts a delivery.
func (r *OrderRepo) CreateDelivery(ctx context.Context, d *orders.Delivery) error {
	return r.insert(ctx, deliveriesTable, "delivery", postgres.ColumnValues(d, deliveryCols))
}

// UpdateDelivery writes quantity and date of a delivery.
func (r *OrderRepo) UpdateDelivery(ctx context.Context, d *orders.Delivery) error {
	return r.update(ctx, deliveriesTable, "delivery", d.ID, map[string]any{
		"quantity_delivered": d.QuantityDelivered,
		"delivery_date":      d.DeliveryDate,
	})
}

// DeleteDelivery removes a delivery.
func (r *OrderRepo) DeleteDelivery(ctx context.Context, deliveryID id.ID) error {
	return r.remove(ctx, deliveriesTable, "delivery", deliveryID)
}

// GetPayments returns the payments of an order, oldest first.
func (r *OrderRepo) GetPayments(ctx context.Context, orderID id.ID) ([]*orders.Payment, error) {
	sql, args, err := r.Builder().
		Select(paymentCols...).
		From(paymentsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("date_paid", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	payments := []*orders.Payment{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}
	return payments, nil
}

// CreatePayment inserts a payment.
func (r *OrderRepo) CreatePayment(ctx context.Context, p *orders.Payment) error {
	return r.insert(ctx, paymentsTable, "payment", postgres.ColumnValues(p, paymentCols))
}

// UpdatePayment writes the editable payment fields. The payment code never changes.
func (r *OrderRepo) UpdatePayment(ctx context.Context, p *orders.Payment) error {
	return r.update(ctx, paymentsTable, "payment", p.ID, map[string]any{
		"amount_paid": p.AmountPaid,
		"currency":    p.Currency,
		"date_paid":   p.DatePaid,
		"notes":       p.Notes,
		"updated_at":  p.UpdatedAt,
	})
}

// DeletePayment removes a payment.
func (r *OrderRepo) DeletePayment(ctx context.Context, paymentID id.ID) error {
	return r.remove(ctx, paymentsTable, "payment", paymentID)
}

func (r *OrderRepo) insert(ctx context.Context, table, entity string, data map[string]any) error {
	sql, args, err := r.Builder().Insert(table).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", table, err), entity)
	}
	return nil
}

func (r *OrderRepo) update(ctx context.Context, table, entity string, rowID id.ID, data map[string]any) error {
	sql, args, err := r.Builder().
		Update(table).
		SetMap(data).
		Where(squirrel.Eq{"id": rowID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", table, err), entity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, rowID.String())
	}
	return nil
}

func (r *OrderRepo) remove(ctx context.Context, table, entity string, rowID id.ID) error {
	sql, args, err := r.Builder().Delete(table).Where(squirrel.Eq{"id": rowID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", table, err), entity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, rowID.String())
	}
	return nil
}
