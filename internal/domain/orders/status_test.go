package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
)

var refNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedDeriver(policy AgingPolicy) Deriver {
	return Deriver{Policy: policy, Now: func() time.Time { return refNow }}
}

func line(qty int64, price string) *OrderItem {
	return NewOrderItem(id.New(), id.New(), qty, types.MustMoney(price), types.DefaultCurrency)
}

func deliver(it *OrderItem, qty int64, at time.Time) {
	it.Deliveries = append(it.Deliveries, &Delivery{
		ID:                id.New(),
		OrderItemID:       it.ID,
		QuantityDelivered: qty,
		DeliveryDate:      at,
	})
}

func pay(o *Order, amount string) {
	o.Payments = append(o.Payments, &Payment{ID: id.New(), OrderID: o.ID, AmountPaid: types.MustMoney(amount), DatePaid: refNow})
}

func orderWith(orderDate time.Time, items ...*OrderItem) *Order {
	o := NewOrder(KindSales, id.New(), orderDate)
	o.Items = items
	return o
}

func TestDerive_NothingDeliveredNothingPaid(t *testing.T) {
	o := orderWith(refNow, line(2, "100"), line(1, "50"))

	s := fixedDeriver(AgingFromOrderDate).Derive(o)

	assert.True(t, s.OrderValue.Equal(types.MustMoney("250")), "order value %s", s.OrderValue)
	assert.True(t, s.AmountDue.Equal(types.MustMoney("250")), "amount due %s", s.AmountDue)
	assert.True(t, s.TotalPaid.IsZero())
	assert.False(t, s.IsPaid)
	assert.Nil(t, s.LastDeliveryDate)
	assert.Equal(t, PaymentPending, s.PaymentStatus)
	assert.Equal(t, OrderPendingDeliveries, s.OrderStatus)
}

func TestDerive_FullyDeliveredToday(t *testing.T) {
	a, b := line(2, "100"), line(1, "50")
	deliver(a, 2, refNow)
	deliver(b, 1, refNow)
	o := orderWith(refNow.AddDate(0, 0, -3), a, b)

	s := fixedDeriver(AgingFromOrderDate).Derive(o)

	assert.True(t, s.AmountDue.IsZero())
	assert.True(t, s.OrderValue.Equal(types.MustMoney("250")))
	assert.Equal(t, OrderComplete, s.OrderStatus)
	assert.True(t, s.IsPaid)
	assert.Equal(t, PaymentPaid, s.PaymentStatus)
	require.NotNil(t, s.LastDeliveryDate)
	assert.True(t, s.LastDeliveryDate.Equal(refNow))
	assert.True(t, a.IsDelivered)
	assert.EqualValues(t, 2, a.QuantityDelivered)
}

func TestDerive_UndeliveredAfter65Days(t *testing.T) {
	o := orderWith(refNow.AddDate(0, 0, -65), line(2, "100"))

	assert.Equal(t, PaymentCritical, fixedDeriver(AgingFromOrderDate).Derive(o).PaymentStatus)
	assert.Equal(t, PaymentPending, fixedDeriver(AgingFromDeliveryOnly).Derive(o).PaymentStatus)
}

func TestDerive_AgingFromLastDelivery(t *testing.T) {
	tests := []struct {
		name    string
		ageDays int
		want    PaymentStatus
	}{
		{"same day", 0, PaymentPending},
		{"30 days", 30, PaymentPending},
		{"31 days", 31, PaymentOverdue},
		{"60 days", 60, PaymentOverdue},
		{"61 days", 61, PaymentCritical},
		{"a year", 365, PaymentCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivered, pending := line(1, "40"), line(1, "60")
			deliver(delivered, 1, refNow.AddDate(0, 0, -tt.ageDays))
			// order date is far in the past; the last delivery wins
			o := orderWith(refNow.AddDate(-1, 0, 0), delivered, pending)

			s := fixedDeriver(AgingFromOrderDate).Derive(o)

			assert.Equal(t, tt.want, s.PaymentStatus)
			assert.True(t, s.AmountDue.Equal(types.MustMoney("60")))
		})
	}
}

func TestDerive_PaidWhenPaymentsCoverUndelivered(t *testing.T) {
	a, b := line(2, "100"), line(1, "50")
	deliver(a, 2, refNow.AddDate(0, 0, -90))
	o := orderWith(refNow.AddDate(0, 0, -100), a, b)

	pay(o, "20")
	s := fixedDeriver(AgingFromOrderDate).Derive(o)
	assert.False(t, s.IsPaid)
	assert.Equal(t, PaymentCritical, s.PaymentStatus)

	pay(o, "30")
	s = fixedDeriver(AgingFromOrderDate).Derive(o)
	assert.True(t, s.TotalPaid.Equal(types.MustMoney("50")))
	assert.True(t, s.IsPaid)
	assert.Equal(t, PaymentPaid, s.PaymentStatus)
	assert.Equal(t, OrderPendingDeliveries, s.OrderStatus)
}

func TestDerive_PartialDeliveryIsNotDelivered(t *testing.T) {
	a := line(5, "10")
	deliver(a, 2, refNow)
	deliver(a, 2, refNow.Add(time.Hour))
	o := orderWith(refNow, a)

	s := fixedDeriver(AgingFromOrderDate).Derive(o)

	assert.EqualValues(t, 4, a.QuantityDelivered)
	assert.False(t, a.IsDelivered)
	assert.True(t, s.AmountDue.Equal(types.MustMoney("50")))
	assert.Equal(t, OrderPendingDeliveries, s.OrderStatus)
	require.NotNil(t, s.LastDeliveryDate)
	assert.True(t, s.LastDeliveryDate.Equal(refNow.Add(time.Hour)))
}

func TestDerive_CompleteIffEveryItemDelivered(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		items := []*OrderItem{line(1, "1"), line(2, "2"), line(3, "3")}
		all := true
		for i, it := range items {
			if mask&(1<<i) != 0 {
				deliver(it, it.QuantityOrdered, refNow)
			} else {
				all = false
			}
		}
		s := fixedDeriver(AgingFromOrderDate).Derive(orderWith(refNow, items...))

		assert.Equal(t, all, s.OrderStatus == OrderComplete, "mask %03b", mask)
		assert.Equal(t, s.TotalPaid.GreaterThanOrEqual(s.AmountDue), s.IsPaid, "mask %03b", mask)
	}
}

func TestDerive_Idempotent(t *testing.T) {
	a, b := line(2, "100"), line(1, "50")
	deliver(a, 1, refNow.AddDate(0, 0, -40))
	o := orderWith(refNow.AddDate(0, 0, -50), a, b)
	pay(o, "10")

	d := fixedDeriver(AgingFromOrderDate)
	first := d.Derive(o)
	o.Apply(first)
	second := d.Derive(o)

	assert.True(t, first.Equal(second))
	assert.Equal(t, PaymentOverdue, second.PaymentStatus)
}

func TestDerive_EmptyOrder(t *testing.T) {
	s := fixedDeriver(AgingFromOrderDate).Derive(orderWith(refNow))

	assert.True(t, s.OrderValue.IsZero())
	assert.Equal(t, OrderComplete, s.OrderStatus)
	assert.Equal(t, PaymentPaid, s.PaymentStatus)
}

func TestAgeDays(t *testing.T) {
	assert.Equal(t, 0, AgeDays(refNow, refNow))
	assert.Equal(t, 0, AgeDays(refNow, refNow.Add(-23*time.Hour)))
	assert.Equal(t, 1, AgeDays(refNow, refNow.Add(-25*time.Hour)))
	assert.Equal(t, -1, AgeDays(refNow, refNow.Add(time.Hour)))
}

func TestParseAgingPolicy(t *testing.T) {
	assert.Equal(t, AgingFromOrderDate, ParseAgingPolicy("order_date"))
	assert.Equal(t, AgingFromOrderDate, ParseAgingPolicy(""))
	assert.Equal(t, AgingFromDeliveryOnly, ParseAgingPolicy("none"))
}
