// Package domain provides shared business logic interfaces and types.
package domain

import (
	"context"

	"orderledger/internal/core/entity"
	"orderledger/internal/core/id"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches the searchable text columns of the entity (ILIKE)
	Search string

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OrderBy specifies sorting, e.g. "name" or "-created_at"
	OrderBy string

	Limit  int
	Offset int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// DefaultListFilter returns the first page of live records.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: DefaultPageSize}
}

// Normalize clamps Limit to [1, MaxPageSize] and Offset to >= 0.
func (f *ListFilter) Normalize() {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	f.Offset = max(f.Offset, 0)
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository defines CRUD operations for reference records (parties, inventory).
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)

	// Update modifies an existing entity with optimistic locking
	Update(ctx context.Context, entity T) error

	// Delete sets deletion_mark; rows are never physically removed
	Delete(ctx context.Context, id id.ID) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	BeforeUpdate HookEvent = "before_update"
	BeforeDelete HookEvent = "before_delete"
)

// Hook runs inside the write transaction, before the repository call. An error
// aborts the write.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry holds record-level checks (normalisation, delete guards).
// Ledger rules never live here; they are explicit service calls.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
