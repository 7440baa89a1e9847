package dto

import (
	"time"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/orders"
)

// --- Request DTOs ---

// OrderItemRequest is one line of a new order. UnitPrice defaults to the
// inventory item's price.
type OrderItemRequest struct {
	InventoryID     string       `json:"inventoryId" binding:"required,uuid"`
	QuantityOrdered int64        `json:"quantityOrdered" binding:"required,min=1"`
	UnitPrice       *types.Money `json:"unitPrice"`
}

// ToInput converts DTO to service input.
func (r *OrderItemRequest) ToInput() (orders.ItemInput, error) {
	invID, err := id.Parse(r.InventoryID)
	if err != nil {
		return orders.ItemInput{}, apperror.NewFieldValidation("inventoryId", "invalid id format")
	}
	return orders.ItemInput{
		InventoryID:     invID,
		QuantityOrdered: r.QuantityOrdered,
		UnitPrice:       r.UnitPrice,
	}, nil
}

// CreateOrderRequest is the request body for creating an order.
type CreateOrderRequest struct {
	PartyID   string             `json:"partyId" binding:"required,uuid"`
	OrderDate *time.Time         `json:"orderDate"`
	Currency  string             `json:"currency" binding:"omitempty,currency"`
	Items     []OrderItemRequest `json:"items" binding:"dive"`
}

// ToInput converts DTO to service input.
func (r *CreateOrderRequest) ToInput() (orders.CreateInput, error) {
	partyID, err := id.Parse(r.PartyID)
	if err != nil {
		return orders.CreateInput{}, apperror.NewFieldValidation("partyId", "invalid id format")
	}
	in := orders.CreateInput{
		PartyID:  partyID,
		Currency: r.Currency,
		Items:    make([]orders.ItemInput, 0, len(r.Items)),
	}
	if r.OrderDate != nil {
		in.OrderDate = *r.OrderDate
	}
	for i := range r.Items {
		li, err := r.Items[i].ToInput()
		if err != nil {
			return orders.CreateInput{}, err
		}
		in.Items = append(in.Items, li)
	}
	return in, nil
}

// UpdateOrderRequest is the request body for updating order header fields.
type UpdateOrderRequest struct {
	OrderDate *time.Time `json:"orderDate"`
	Currency  *string    `json:"currency" binding:"omitempty,currency"`
	Version   int        `json:"version" binding:"required,min=1"`
}

// ToInput converts DTO to service input.
func (r *UpdateOrderRequest) ToInput() orders.UpdateInput {
	return orders.UpdateInput{
		Version:   r.Version,
		OrderDate: r.OrderDate,
		Currency:  r.Currency,
	}
}

// UpdateOrderItemRequest changes quantity or price of a line.
type UpdateOrderItemRequest struct {
	QuantityOrdered *int64       `json:"quantityOrdered" binding:"omitempty,min=1"`
	UnitPrice       *types.Money `json:"unitPrice"`
}

// ToInput converts DTO to service input.
func (r *UpdateOrderItemRequest) ToInput() orders.ItemUpdate {
	return orders.ItemUpdate{QuantityOrdered: r.QuantityOrdered, UnitPrice: r.UnitPrice}
}

// DeliveryRequest records or edits a delivery. DeliveryDate defaults to now.
type DeliveryRequest struct {
	QuantityDelivered int64      `json:"quantityDelivered" binding:"required,min=1"`
	DeliveryDate      *time.Time `json:"deliveryDate"`
}

// ToInput converts DTO to service input.
func (r *DeliveryRequest) ToInput() orders.DeliveryInput {
	return orders.DeliveryInput{QuantityDelivered: r.QuantityDelivered, DeliveryDate: r.DeliveryDate}
}

// PaymentRequest records or edits a payment.
type PaymentRequest struct {
	AmountPaid types.Money `json:"amountPaid"`
	DatePaid   *time.Time  `json:"datePaid"`
	Currency   string      `json:"currency" binding:"omitempty,currency"`
	Notes      *string     `json:"notes" binding:"omitempty,max=1000"`
}

// ToInput converts DTO to service input.
func (r *PaymentRequest) ToInput() orders.PaymentInput {
	return orders.PaymentInput{
		AmountPaid: r.AmountPaid,
		DatePaid:   r.DatePaid,
		Currency:   r.Currency,
		Notes:      optString(r.Notes),
	}
}

// OrderListQuery contains order list query parameters.
type OrderListQuery struct {
	ListQuery
	PartyID       string `form:"partyId" binding:"omitempty,uuid"`
	PaymentStatus string `form:"paymentStatus" binding:"omitempty,oneof=paid pending_payment overdue critical"`
	OrderStatus   string `form:"orderStatus" binding:"omitempty,oneof=complete pending_deliveries"`
}

// --- Response DTOs ---

// DeliveryResponse is one delivery of an order line.
type DeliveryResponse struct {
	ID                string    `json:"id"`
	QuantityDelivered int64     `json:"quantityDelivered"`
	DeliveryDate      time.Time `json:"deliveryDate"`
}

// OrderItemResponse is one order line.
type OrderItemResponse struct {
	ID                string             `json:"id"`
	InventoryID       string             `json:"inventoryId"`
	ItemName          string             `json:"itemName"`
	QuantityOrdered   int64              `json:"quantityOrdered"`
	UnitPrice         types.Money        `json:"unitPrice"`
	TotalCost         types.Money        `json:"totalCost"`
	Currency          types.Currency     `json:"currency"`
	QuantityDelivered int64              `json:"quantityDelivered"`
	IsDelivered       bool               `json:"isDelivered"`
	LastDeliveryDate  *time.Time         `json:"lastDeliveryDate,omitempty"`
	Deliveries        []DeliveryResponse `json:"deliveries"`
}

// PaymentResponse is one payment of an order.
type PaymentResponse struct {
	ID          string         `json:"id"`
	PaymentCode string         `json:"paymentCode"`
	AmountPaid  types.Money    `json:"amountPaid"`
	Currency    types.Currency `json:"currency"`
	DatePaid    time.Time      `json:"datePaid"`
	Notes       *string        `json:"notes,omitempty"`
}

// OrderResponse is the response for an order. Items and payments are omitted
// in list responses.
type OrderResponse struct {
	ID               string               `json:"id"`
	Kind             orders.Kind          `json:"kind"`
	OrderCode        int64                `json:"orderCode"`
	PartyID          string               `json:"partyId"`
	PartyName        string               `json:"partyName"`
	OrderDate        time.Time            `json:"orderDate"`
	Currency         types.Currency       `json:"currency"`
	OrderValue       types.Money          `json:"orderValue"`
	TotalPaid        types.Money          `json:"totalPaid"`
	AmountDue        types.Money          `json:"amountDue"`
	IsPaid           bool                 `json:"isPaid"`
	LastDeliveryDate *time.Time           `json:"lastDeliveryDate,omitempty"`
	PaymentStatus    orders.PaymentStatus `json:"paymentStatus"`
	OrderStatus      orders.OrderStatus   `json:"orderStatus"`
	Version          int                  `json:"version"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
	Items            []OrderItemResponse  `json:"items,omitempty"`
	Payments         []PaymentResponse    `json:"payments,omitempty"`
}

// FromOrder creates response DTO from domain entity.
func FromOrder(o *orders.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID.String(),
		Kind:             o.Kind,
		OrderCode:        o.OrderCode,
		PartyID:          o.PartyID.String(),
		PartyName:        o.PartyName,
		OrderDate:        o.OrderDate,
		Currency:         o.Currency,
		OrderValue:       o.OrderValue,
		TotalPaid:        o.TotalPaid,
		AmountDue:        o.AmountDue,
		IsPaid:           o.IsPaid,
		LastDeliveryDate: o.LastDeliveryDate,
		PaymentStatus:    o.PaymentStatus,
		OrderStatus:      o.OrderStatus,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}

	for _, it := range o.Items {
		line := OrderItemResponse{
			ID:                it.ID.String(),
			InventoryID:       it.InventoryID.String(),
			ItemName:          it.ItemName,
			QuantityOrdered:   it.QuantityOrdered,
			UnitPrice:         it.UnitPrice,
			TotalCost:         it.TotalCost(),
			Currency:          it.Currency,
			QuantityDelivered: it.QuantityDelivered,
			IsDelivered:       it.IsDelivered,
			LastDeliveryDate:  it.LastDeliveryDate,
			Deliveries:        make([]DeliveryResponse, 0, len(it.Deliveries)),
		}
		for _, d := range it.Deliveries {
			line.Deliveries = append(line.Deliveries, DeliveryResponse{
				ID:                d.ID.String(),
				QuantityDelivered: d.QuantityDelivered,
				DeliveryDate:      d.DeliveryDate,
			})
		}
		resp.Items = append(resp.Items, line)
	}

	for _, p := range o.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:          p.ID.String(),
			PaymentCode: p.PaymentCode,
			AmountPaid:  p.AmountPaid,
			Currency:    p.Currency,
			DatePaid:    p.DatePaid,
			Notes:       p.Notes,
		})
	}
	return resp
}

// ToFilter converts query parameters to an order list filter.
func (q OrderListQuery) ToFilter() (orders.ListFilter, error) {
	f := orders.ListFilter{ListFilter: q.ListQuery.ToFilter()}
	if q.PartyID != "" {
		partyID, err := id.Parse(q.PartyID)
		if err != nil {
			return f, apperror.NewFieldValidation("partyId", "invalid id format")
		}
		f.PartyID = &partyID
	}
	if q.PaymentStatus != "" {
		ps := orders.PaymentStatus(q.PaymentStatus)
		f.PaymentStatus = &ps
	}
	if q.OrderStatus != "" {
		st := orders.OrderStatus(q.OrderStatus)
		f.OrderStatus = &st
	}
	return f, nil
}
