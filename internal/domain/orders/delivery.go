package orders

import (
	"time"

	"orderledger/internal/core/apperror"
)

// TrackDeliveries refreshes the derived delivery fields of an order line from its
// Deliveries and reports whether anything changed.
func TrackDeliveries(it *OrderItem) bool {
	var qty int64
	var last *time.Time
	for _, d := range it.Deliveries {
		qty += d.QuantityDelivered
		if last == nil || d.DeliveryDate.After(*last) {
			dd := d.DeliveryDate
			last = &dd
		}
	}

	delivered := qty == it.QuantityOrdered
	changed := qty != it.QuantityDelivered ||
		delivered != it.IsDelivered ||
		!sameTime(last, it.LastDeliveryDate)

	it.QuantityDelivered = qty
	it.IsDelivered = delivered
	it.LastDeliveryDate = last
	return changed
}

// CheckDeliveryQuantity rejects a change that would push the delivered quantity of
// the line above the ordered quantity. previous is the quantity of the delivery
// being replaced, 0 for a new one.
func CheckDeliveryQuantity(it *OrderItem, previous, requested int64) error {
	var delivered int64
	for _, d := range it.Deliveries {
		delivered += d.QuantityDelivered
	}
	if delivered-previous+requested > it.QuantityOrdered {
		return apperror.NewOverDelivery(it.ID.String(), it.QuantityOrdered, delivered-previous, requested)
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
