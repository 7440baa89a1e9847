// Package reports provides the dashboard summary and party statements.
package reports

import (
	"time"

	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
)

// --- Dashboard ---

// Dashboard is the landing-page summary of the ledger.
type Dashboard struct {
	Customers    int64 `json:"customers"`
	Suppliers    int64 `json:"suppliers"`
	Items        int64 `json:"items"`
	SalesOrders  int64 `json:"salesOrders"`
	SupplyOrders int64 `json:"supplyOrders"`

	// Revenue sums payments on sales orders; Expenditure on supply orders.
	Revenue     types.Money `json:"revenue"`
	Expenditure types.Money `json:"expenditure"`

	// PendingDeliveries counts live orders of either kind not yet complete.
	PendingDeliveries int64 `json:"pendingDeliveries"`

	UnpaidSales     int64 `json:"unpaidSales"`
	UnpaidSupply    int64 `json:"unpaidSupply"`
	UnpaidCustomers int64 `json:"unpaidCustomers"`
	UnpaidSuppliers int64 `json:"unpaidSuppliers"`

	LowStock []LowStockItem `json:"lowStock"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// LowStockItem is an inventory item at or below its threshold.
type LowStockItem struct {
	ID           id.ID  `db:"id" json:"id"`
	ItemName     string `db:"item_name" json:"itemName"`
	SKU          string `db:"sku" json:"sku"`
	Quantity     int64  `db:"quantity" json:"quantity"`
	MinThreshold int64  `db:"min_threshold" json:"minThreshold"`
}

// --- Party statement ---

// Statement lists a party's orders and payments with its running totals.
type Statement struct {
	PartyID   id.ID          `json:"partyId"`
	Kind      parties.Kind   `json:"kind"`
	Name      string         `json:"name"`
	Currency  types.Currency `json:"currency"`
	TotalPaid types.Money    `json:"totalPaid"`
	TotalDue  types.Money    `json:"totalDue"`

	Orders   []StatementOrder   `json:"orders"`
	Payments []StatementPayment `json:"payments"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// StatementOrder is one order row of a statement.
type StatementOrder struct {
	OrderID       id.ID                `db:"id" json:"orderId"`
	OrderCode     int64                `db:"order_code" json:"orderCode"`
	OrderDate     time.Time            `db:"order_date" json:"orderDate"`
	OrderValue    types.Money          `db:"order_value" json:"orderValue"`
	TotalPaid     types.Money          `db:"total_paid" json:"totalPaid"`
	AmountDue     types.Money          `db:"amount_due" json:"amountDue"`
	PaymentStatus orders.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	OrderStatus   orders.OrderStatus   `db:"order_status" json:"orderStatus"`
}

// StatementPayment is one payment row of a statement.
type StatementPayment struct {
	OrderCode   int64       `db:"order_code" json:"orderCode"`
	PaymentCode string      `db:"payment_code" json:"paymentCode"`
	DatePaid    time.Time   `db:"date_paid" json:"datePaid"`
	AmountPaid  types.Money `db:"amount_paid" json:"amountPaid"`
	Notes       *string     `db:"notes" json:"notes,omitempty"`
}

// OrderValueSum totals the order values of the statement.
func (s *Statement) OrderValueSum() types.Money {
	sum := types.Zero()
	for _, o := range s.Orders {
		sum = sum.Add(o.OrderValue)
	}
	return sum
}
