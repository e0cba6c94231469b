// Package repository declares the persistence ports the use cases depend on.
// Adapters under internal/infra implement them.
package repository

import (
	"context"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
)

// PagedResult bundles one window of matches with the total match count.
// Total ignores the window.
type PagedResult[T any] struct {
	Total int64
	Items []T
}

// Reader is the read side of a store for T, queried with filters of type F.
type Reader[T any, F any] interface {
	// ByID returns (nil, nil) when no row matches.
	ByID(ctx context.Context, id entity.ID[T]) (*T, error)
	// ByQuery returns the matches of filter inside window, plus the unpaginated total.
	ByQuery(ctx context.Context, filter F, window pagination.Window) (PagedResult[T], error)
	// CountOf returns the unpaginated number of matches of filter.
	CountOf(ctx context.Context, filter F) (int64, error)
}

// Writer is the write side of a store for T.
// Each call is a single unit of work. Writers trust their caller to have
// validated the entity.
type Writer[T any] interface {
	// Create persists item and returns it with its assigned id.
	Create(ctx context.Context, item T) (T, error)
	// Update overwrites the row matching item's id. It never creates a row
	// and is a no-op when none matches.
	Update(ctx context.Context, item T) error
	// Delete removes the row; it is a no-op when absent.
	Delete(ctx context.Context, id entity.ID[T]) error
}
