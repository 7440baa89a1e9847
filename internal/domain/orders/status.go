package orders

import (
	"time"

	"orderledger/internal/core/types"
)

// Aging windows, in whole days since the reference date.
const (
	PendingWindowDays = 30
	OverdueWindowDays = 60
)

// AgingPolicy selects the date an unpaid order's age is measured from.
type AgingPolicy int

const (
	// AgingFromOrderDate measures from the last delivery, or from the order date
	// while nothing has been delivered yet.
	AgingFromOrderDate AgingPolicy = iota

	// AgingFromDeliveryOnly keeps an undelivered order pending_payment forever.
	AgingFromDeliveryOnly
)

// ParseAgingPolicy maps the config value ("order_date" or "none").
func ParseAgingPolicy(s string) AgingPolicy {
	if s == "none" || s == "delivery_only" {
		return AgingFromDeliveryOnly
	}
	return AgingFromOrderDate
}

// Summary is the derived state of an order.
type Summary struct {
	OrderValue       types.Money
	TotalPaid        types.Money
	AmountDue        types.Money
	IsPaid           bool
	LastDeliveryDate *time.Time
	PaymentStatus    PaymentStatus
	OrderStatus      OrderStatus
}

// Equal compares two summaries numerically.
func (s Summary) Equal(o Summary) bool {
	if !s.OrderValue.Equal(o.OrderValue) || !s.TotalPaid.Equal(o.TotalPaid) || !s.AmountDue.Equal(o.AmountDue) {
		return false
	}
	if s.IsPaid != o.IsPaid || s.PaymentStatus != o.PaymentStatus || s.OrderStatus != o.OrderStatus {
		return false
	}
	switch {
	case s.LastDeliveryDate == nil && o.LastDeliveryDate == nil:
		return true
	case s.LastDeliveryDate == nil || o.LastDeliveryDate == nil:
		return false
	default:
		return s.LastDeliveryDate.Equal(*o.LastDeliveryDate)
	}
}

// Deriver computes order summaries. It is pure given Now.
type Deriver struct {
	Policy AgingPolicy
	Now    func() time.Time
}

// NewDeriver creates a Deriver using the wall clock.
func NewDeriver(policy AgingPolicy) Deriver {
	return Deriver{Policy: policy, Now: time.Now}
}

func (d Deriver) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// Derive computes the summary of o from its items, their deliveries and its
// payments. Item delivery state is refreshed first.
func (d Deriver) Derive(o *Order) Summary {
	s := Summary{
		OrderValue: types.Zero(),
		TotalPaid:  types.Zero(),
		AmountDue:  types.Zero(),
	}

	for _, p := range o.Payments {
		s.TotalPaid = s.TotalPaid.Add(p.AmountPaid)
	}

	allDelivered := true
	for _, it := range o.Items {
		TrackDeliveries(it)

		cost := it.TotalCost()
		s.OrderValue = s.OrderValue.Add(cost)
		if !it.IsDelivered {
			s.AmountDue = s.AmountDue.Add(cost)
			allDelivered = false
		}
		if it.LastDeliveryDate != nil && (s.LastDeliveryDate == nil || it.LastDeliveryDate.After(*s.LastDeliveryDate)) {
			last := *it.LastDeliveryDate
			s.LastDeliveryDate = &last
		}
	}

	s.IsPaid = s.TotalPaid.GreaterThanOrEqual(s.AmountDue)

	if allDelivered {
		s.OrderStatus = OrderComplete
	} else {
		s.OrderStatus = OrderPendingDeliveries
	}

	s.PaymentStatus = d.paymentStatus(s, o.OrderDate)
	return s
}

func (d Deriver) paymentStatus(s Summary, orderDate time.Time) PaymentStatus {
	if s.IsPaid {
		return PaymentPaid
	}

	var ref time.Time
	switch {
	case s.LastDeliveryDate != nil:
		ref = *s.LastDeliveryDate
	case d.Policy == AgingFromOrderDate && !orderDate.IsZero():
		ref = orderDate
	default:
		return PaymentPending
	}

	return StatusForAge(AgeDays(d.now(), ref))
}

// AgeDays returns whole days elapsed from ref to now, rounded down.
func AgeDays(now, ref time.Time) int {
	hours := now.Sub(ref).Hours()
	days := int(hours / 24)
	if hours < 0 && float64(days*24) != hours {
		days--
	}
	return days
}

// StatusForAge maps the age of an unpaid order to its payment status.
func StatusForAge(ageDays int) PaymentStatus {
	switch {
	case ageDays <= PendingWindowDays:
		return PaymentPending
	case ageDays <= OverdueWindowDays:
		return PaymentOverdue
	default:
		return PaymentCritical
	}
}
