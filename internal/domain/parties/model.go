// Package parties provides customers and suppliers together with their running
// payment balances.
package parties

import (
	"context"
	"regexp"
	"strings"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/entity"
	"orderledger/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Kind distinguishes customers from suppliers. Both live in one table.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCustomer || k == KindSupplier
}

// Party is a customer or a supplier.
type Party struct {
	entity.BaseEntity

	Kind         Kind           `db:"kind" json:"kind"`
	Name         string         `db:"name" json:"name"`
	Email        *string        `db:"email" json:"email,omitempty"`
	ContactPhone *string        `db:"contact_phone" json:"contactPhone,omitempty"`
	Currency     types.Currency `db:"currency" json:"currency"`

	// TotalPaid and TotalDue are maintained by the order ledger only.
	TotalPaid types.Money `db:"total_paid" json:"totalPaid"`
	TotalDue  types.Money `db:"total_due" json:"totalDue"`

	// TotalOrders counts live orders; computed on read.
	TotalOrders int64 `db:"total_orders" json:"totalOrders"`
}

// NewParty creates a Party with zero balances.
func NewParty(kind Kind, name string) *Party {
	return &Party{
		BaseEntity: entity.NewBaseEntity(),
		Kind:       kind,
		Name:       name,
		Currency:   types.DefaultCurrency,
		TotalPaid:  types.Zero(),
		TotalDue:   types.Zero(),
	}
}

// Balance returns the accumulated totals.
func (p *Party) Balance() Balance {
	return Balance{Paid: p.TotalPaid, Due: p.TotalDue}
}

// Validate implements entity.Validatable.
func (p *Party) Validate(ctx context.Context) error {
	if !p.Kind.Valid() {
		return apperror.NewFieldValidation("kind", "invalid party kind").
			WithDetail("value", string(p.Kind))
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if len(p.Name) > 255 {
		return apperror.NewFieldValidation("name", "name must be at most 255 characters")
	}
	if p.Email != nil && *p.Email != "" && !emailRE.MatchString(*p.Email) {
		return apperror.NewFieldValidation("email", "invalid email format")
	}
	cur, err := types.ParseCurrency(string(p.Currency))
	if err != nil {
		return apperror.NewFieldValidation("currency", err.Error())
	}
	p.Currency = cur
	return nil
}

// Balance is a pair of running totals, or a delta between two of them.
type Balance struct {
	Paid types.Money `json:"paid"`
	Due  types.Money `json:"due"`
}

// Add returns b + o.
func (b Balance) Add(o Balance) Balance {
	return Balance{Paid: b.Paid.Add(o.Paid), Due: b.Due.Add(o.Due)}
}

// Sub returns b - o.
func (b Balance) Sub(o Balance) Balance {
	return Balance{Paid: b.Paid.Sub(o.Paid), Due: b.Due.Sub(o.Due)}
}

// Neg returns -b.
func (b Balance) Neg() Balance {
	return Balance{Paid: b.Paid.Neg(), Due: b.Due.Neg()}
}

// IsZero reports whether both components are zero.
func (b Balance) IsZero() bool {
	return b.Paid.IsZero() && b.Due.IsZero()
}

// Equal compares numerically, ignoring scale.
func (b Balance) Equal(o Balance) bool {
	return b.Paid.Equal(o.Paid) && b.Due.Equal(o.Due)
}
