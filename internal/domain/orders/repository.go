package orders

import (
	"context"

	"orderledger/internal/core/id"
	"orderledger/internal/domain"
)

// ListFilter extends domain.ListFilter with order-specific filters.
type ListFilter struct {
	domain.ListFilter

	PartyID       *id.ID
	PaymentStatus *PaymentStatus
	OrderStatus   *OrderStatus
}

// OrderRepository persists order headers of one kind.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id id.ID) (*Order, error)

	// GetForUpdate reads the header and locks the row until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Order, error)

	// Update writes header fields and the cached summary, checking o.Version.
	// On success o.Version is incremented.
	Update(ctx context.Context, o *Order) error

	// Delete sets deletion_mark.
	Delete(ctx context.Context, id id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	// LockByParty locks every live order of the party in id order and returns the ids.
	LockByParty(ctx context.Context, partyID id.ID) ([]id.ID, error)

	// ListUnpaidIDs returns live orders whose cached status is not paid.
	ListUnpaidIDs(ctx context.Context) ([]id.ID, error)
}

// LineRepository persists order lines and their deliveries.
type LineRepository interface {
	// GetItems returns the lines of an order with their deliveries attached.
	GetItems(ctx context.Context, orderID id.ID) ([]*OrderItem, error)

	CreateItem(ctx context.Context, it *OrderItem) error

	// UpdateItem writes quantity, price and the derived delivery columns.
	UpdateItem(ctx context.Context, it *OrderItem) error

	// DeleteItem removes the line and its deliveries.
	DeleteItem(ctx context.Context, itemID id.ID) error

	CreateDelivery(ctx context.Context, d *Delivery) error
	UpdateDelivery(ctx context.Context, d *Delivery) error
	DeleteDelivery(ctx context.Context, deliveryID id.ID) error
}

// PaymentRepository persists payments.
type PaymentRepository interface {
	GetPayments(ctx context.Context, orderID id.ID) ([]*Payment, error)
	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, paymentID id.ID) error
}

// Repository is the full persistence contract of the orders service.
type Repository interface {
	OrderRepository
	LineRepository
	PaymentRepository
}
