// Package orders provides sales and supply orders together with the ledger rules
// that keep their payment and delivery status, and their party's totals, consistent.
package orders

import (
	"context"
	"time"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/entity"
	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/parties"
)

// Kind distinguishes sales orders (to customers) from supply orders (from suppliers).
type Kind string

const (
	KindSales  Kind = "sales"
	KindSupply Kind = "supply"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindSales || k == KindSupply
}

// CodeOffset keeps the two code series visually distinct.
func (k Kind) CodeOffset() int64 {
	if k == KindSupply {
		return 3000
	}
	return 1000
}

// SequenceKey names the numerator sequence of this kind.
func (k Kind) SequenceKey() string {
	return string(k) + "_order"
}

// PartyKind returns the kind of party that owns orders of this kind.
func (k Kind) PartyKind() parties.Kind {
	if k == KindSupply {
		return parties.KindSupplier
	}
	return parties.KindCustomer
}

// PaymentStatus of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending_payment"
	PaymentOverdue  PaymentStatus = "overdue"
	PaymentCritical PaymentStatus = "critical"
	PaymentPaid     PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentOverdue, PaymentCritical, PaymentPaid:
		return true
	}
	return false
}

// OrderStatus is the delivery status of an order.
type OrderStatus string

const (
	OrderPendingDeliveries OrderStatus = "pending_deliveries"
	OrderComplete          OrderStatus = "complete"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	return s == OrderPendingDeliveries || s == OrderComplete
}

// Order is a sales or supply order.
//
// The summary columns (OrderValue through OrderStatus) are derived and cached:
// they change only through Service.RecomputeAndSave and the mutations built on it.
type Order struct {
	entity.BaseEntity

	Kind      Kind           `db:"kind" json:"kind"`
	PartyID   id.ID          `db:"party_id" json:"partyId"`
	PartyName string         `db:"party_name" json:"partyName"`
	SeqNo     int64          `db:"seq_no" json:"seqNo"`
	OrderCode int64          `db:"order_code" json:"orderCode"`
	OrderDate time.Time      `db:"order_date" json:"orderDate"`
	Currency  types.Currency `db:"currency" json:"currency"`

	OrderValue       types.Money   `db:"order_value" json:"orderValue"`
	TotalPaid        types.Money   `db:"total_paid" json:"totalPaid"`
	AmountDue        types.Money   `db:"amount_due" json:"amountDue"`
	IsPaid           bool          `db:"is_paid" json:"isPaid"`
	LastDeliveryDate *time.Time    `db:"last_delivery_date" json:"lastDeliveryDate,omitempty"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"paymentStatus"`
	OrderStatus      OrderStatus   `db:"order_status" json:"orderStatus"`

	Items    []*OrderItem `db:"-" json:"items"`
	Payments []*Payment   `db:"-" json:"payments"`
}

// NewOrder creates an order with an empty summary. The code is assigned on create.
func NewOrder(kind Kind, partyID id.ID, orderDate time.Time) *Order {
	return &Order{
		BaseEntity:    entity.NewBaseEntity(),
		Kind:          kind,
		PartyID:       partyID,
		OrderDate:     orderDate.UTC(),
		Currency:      types.DefaultCurrency,
		OrderValue:    types.Zero(),
		TotalPaid:     types.Zero(),
		AmountDue:     types.Zero(),
		PaymentStatus: PaymentPending,
		OrderStatus:   OrderPendingDeliveries,
	}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if !o.Kind.Valid() {
		return apperror.NewFieldValidation("kind", "invalid order kind").
			WithDetail("value", string(o.Kind))
	}
	if id.IsNil(o.PartyID) {
		return apperror.NewFieldValidation("partyId", "party is required")
	}
	if o.OrderDate.IsZero() {
		return apperror.NewFieldValidation("orderDate", "order date is required")
	}
	cur, err := types.ParseCurrency(string(o.Currency))
	if err != nil {
		return apperror.NewFieldValidation("currency", err.Error())
	}
	o.Currency = cur
	return nil
}

// Contribution is what this order adds to its party's running totals.
func (o *Order) Contribution() parties.Balance {
	return parties.Balance{Paid: o.TotalPaid, Due: o.AmountDue}
}

// Apply copies a derived summary onto the cached columns.
func (o *Order) Apply(s Summary) {
	o.OrderValue = s.OrderValue
	o.TotalPaid = s.TotalPaid
	o.AmountDue = s.AmountDue
	o.IsPaid = s.IsPaid
	o.LastDeliveryDate = s.LastDeliveryDate
	o.PaymentStatus = s.PaymentStatus
	o.OrderStatus = s.OrderStatus
}

// Summary returns the cached summary columns.
func (o *Order) Summary() Summary {
	return Summary{
		OrderValue:       o.OrderValue,
		TotalPaid:        o.TotalPaid,
		AmountDue:        o.AmountDue,
		IsPaid:           o.IsPaid,
		LastDeliveryDate: o.LastDeliveryDate,
		PaymentStatus:    o.PaymentStatus,
		OrderStatus:      o.OrderStatus,
	}
}

// FindItem returns the order line with the given id.
func (o *Order) FindItem(itemID id.ID) *OrderItem {
	for _, it := range o.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// FindPayment returns the payment with the given id.
func (o *Order) FindPayment(paymentID id.ID) *Payment {
	for _, p := range o.Payments {
		if p.ID == paymentID {
			return p
		}
	}
	return nil
}

// FindDelivery returns the delivery with the given id and the line it belongs to.
func (o *Order) FindDelivery(deliveryID id.ID) (*OrderItem, *Delivery) {
	for _, it := range o.Items {
		for _, d := range it.Deliveries {
			if d.ID == deliveryID {
				return it, d
			}
		}
	}
	return nil, nil
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID              id.ID          `db:"id" json:"id"`
	OrderID         id.ID          `db:"order_id" json:"orderId"`
	InventoryID     id.ID          `db:"inventory_id" json:"inventoryId"`
	ItemName        string         `db:"item_name" json:"itemName"`
	QuantityOrdered int64          `db:"quantity_ordered" json:"quantityOrdered"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`
	Currency        types.Currency `db:"currency" json:"currency"`

	// Derived from Deliveries by TrackDeliveries
	QuantityDelivered int64      `db:"quantity_delivered" json:"quantityDelivered"`
	IsDelivered       bool       `db:"is_delivered" json:"isDelivered"`
	LastDeliveryDate  *time.Time `db:"last_delivery_date" json:"lastDeliveryDate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Deliveries []*Delivery `db:"-" json:"deliveries"`
}

// NewOrderItem creates an order line.
func NewOrderItem(orderID, inventoryID id.ID, quantity int64, unitPrice types.Money, currency types.Currency) *OrderItem {
	now := time.Now().UTC()
	return &OrderItem{
		ID:              id.New(),
		OrderID:         orderID,
		InventoryID:     inventoryID,
		QuantityOrdered: quantity,
		UnitPrice:       unitPrice,
		Currency:        currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// TotalCost is unit_price * quantity_ordered.
func (it *OrderItem) TotalCost() types.Money {
	return types.LineTotal(it.UnitPrice, it.QuantityOrdered)
}

// Validate checks line invariants.
func (it *OrderItem) Validate(ctx context.Context) error {
	if id.IsNil(it.InventoryID) {
		return apperror.NewFieldValidation("inventoryId", "inventory item is required")
	}
	if it.QuantityOrdered <= 0 {
		return apperror.NewFieldValidation("quantityOrdered", "quantity ordered must be positive")
	}
	if it.UnitPrice.IsNegative() {
		return apperror.NewFieldValidation("unitPrice", "unit price cannot be negative")
	}
	return nil
}

// Delivery records goods handed over for one order line.
type Delivery struct {
	ID                id.ID     `db:"id" json:"id"`
	OrderItemID       id.ID     `db:"order_item_id" json:"orderItemId"`
	QuantityDelivered int64     `db:"quantity_delivered" json:"quantityDelivered"`
	DeliveryDate      time.Time `db:"delivery_date" json:"deliveryDate"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks delivery invariants.
func (d *Delivery) Validate(ctx context.Context) error {
	if d.QuantityDelivered <= 0 {
		return apperror.NewFieldValidation("quantityDelivered", "delivered quantity must be positive")
	}
	if d.DeliveryDate.IsZero() {
		return apperror.NewFieldValidation("deliveryDate", "delivery date is required")
	}
	return nil
}

// Payment is money received (sales) or paid out (supply) against an order.
type Payment struct {
	ID          id.ID          `db:"id" json:"id"`
	OrderID     id.ID          `db:"order_id" json:"orderId"`
	PaymentCode string         `db:"payment_code" json:"paymentCode"`
	AmountPaid  types.Money    `db:"amount_paid" json:"amountPaid"`
	Currency    types.Currency `db:"currency" json:"currency"`
	DatePaid    time.Time      `db:"date_paid" json:"datePaid"`
	Notes       *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// Validate checks payment invariants.
func (p *Payment) Validate(ctx context.Context) error {
	if !p.AmountPaid.IsPositive() {
		return apperror.NewFieldValidation("amountPaid", "amount paid must be positive")
	}
	if p.DatePaid.IsZero() {
		return apperror.NewFieldValidation("datePaid", "payment date is required")
	}
	return nil
}
