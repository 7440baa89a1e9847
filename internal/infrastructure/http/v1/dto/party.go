package dto

import (
	"time"

	"orderledger/internal/core/types"
	"orderledger/internal/domain/parties"
)

// --- Request DTOs ---

// CreatePartyRequest is the request body for creating a customer or supplier.
type CreatePartyRequest struct {
	Name         string  `json:"name" binding:"required,max=255"`
	Email        *string `json:"email" binding:"omitempty,email"`
	ContactPhone *string `json:"contactPhone" binding:"omitempty,phone"`
	Currency     string  `json:"currency" binding:"omitempty,currency"`
}

// ToEntity converts DTO to domain entity. An empty currency falls back to def.
func (r *CreatePartyRequest) ToEntity(kind parties.Kind, def types.Currency) *parties.Party {
	p := parties.NewParty(kind, r.Name)
	p.Email = optString(r.Email)
	p.ContactPhone = optString(r.ContactPhone)
	p.Currency = def
	if r.Currency != "" {
		p.Currency = types.Currency(r.Currency)
	}
	return p
}

// UpdatePartyRequest is the request body for updating a party. Totals are
// maintained by the ledger and cannot be set here.
type UpdatePartyRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=255"`
	Email        *string `json:"email" binding:"omitempty,email"`
	ContactPhone *string `json:"contactPhone" binding:"omitempty,phone"`
	Currency     *string `json:"currency" binding:"omitempty,currency"`
	Version      int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update to existing entity.
func (r *UpdatePartyRequest) ApplyTo(p *parties.Party) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Email != nil {
		p.Email = optString(r.Email)
	}
	if r.ContactPhone != nil {
		p.ContactPhone = optString(r.ContactPhone)
	}
	if r.Currency != nil {
		p.Currency = types.Currency(*r.Currency)
	}
	p.Version = r.Version
}

// --- Response DTOs ---

// PartyResponse is the response for a party.
type PartyResponse struct {
	ID           string         `json:"id"`
	Kind         parties.Kind   `json:"kind"`
	Name         string         `json:"name"`
	Email        *string        `json:"email,omitempty"`
	ContactPhone *string        `json:"contactPhone,omitempty"`
	Currency     types.Currency `json:"currency"`
	TotalPaid    types.Money    `json:"totalPaid"`
	TotalDue     types.Money    `json:"totalDue"`
	TotalOrders  int64          `json:"totalOrders"`
	DeletionMark bool           `json:"deletionMark"`
	Version      int            `json:"version"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// FromParty creates response DTO from domain entity.
func FromParty(p *parties.Party) PartyResponse {
	return PartyResponse{
		ID:           p.ID.String(),
		Kind:         p.Kind,
		Name:         p.Name,
		Email:        p.Email,
		ContactPhone: p.ContactPhone,
		Currency:     p.Currency,
		TotalPaid:    p.TotalPaid,
		TotalDue:     p.TotalDue,
		TotalOrders:  p.TotalOrders,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// HistoryQuery selects journal entries.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}
