package repository

import (
	"context"

	"github.com/ammar0144/ormkit/pkg/model"
)

// Repository is the generic data-access interface. Reads are cache-first
// when a cache manager is attached; writes invalidate the table's cache.
type Repository[T model.Entity] interface {
	// Queries
	FindByID(ctx context.Context, id any) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindWhere(ctx context.Context, query any, args ...any) ([]T, error)
	First(ctx context.Context, query any, args ...any) (*T, error)
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id any) (bool, error)

	// Chainable query refinement. Refined copies bypass the cache: their
	// results are neither served from nor stored under the table's keys.
	Preload(associations ...string) Repository[T]
	Joins(query string, args ...any) Repository[T]
	Order(value any) Repository[T]
	Limit(limit int) Repository[T]
	Offset(offset int) Repository[T]

	// Commands
	Create(ctx context.Context, entity *T) error
	CreateBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id any) error
	InsertOrIgnore(ctx context.Context, entity *T) error
	InsertOrUpdate(ctx context.Context, entity *T) error

	// Cache management
	InvalidateCache(ctx context.Context) error
}
