// Package repository provides a generic repository with cache-first reads
// and table-scoped cache invalidation on writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"gorm.io/gorm"

	"github.com/ammar0144/ormkit/pkg/cache"
	"github.com/ammar0144/ormkit/pkg/db"
	"github.com/ammar0144/ormkit/pkg/logger"
	"github.com/ammar0144/ormkit/pkg/model"
)

const (
	cacheKeySeparator  = ":"
	cacheKeyHashLength = 12 // Balance between uniqueness and key length
)

// GenericRepository implements Repository over a database manager and an
// optional cache manager.
type GenericRepository[T model.Entity] struct {
	session   *gorm.DB
	manager   *db.Manager
	cache     *cache.Manager
	tableName string
	dbName    string

	// refined is set on chainable copies. Their results depend on the
	// refinement, so they must not read or write the table-level cache
	// keys shared with the unrefined repository.
	refined bool
}

// New creates a repository. A nil cache manager disables caching.
func New[T model.Entity](manager *db.Manager, cacheManager *cache.Manager) Repository[T] {
	var zero T
	tableName := zero.TableName()
	if tableName == "" {
		panic(fmt.Sprintf("entity type %T returned an empty table name", zero))
	}
	return &GenericRepository[T]{
		session:   manager.DB(),
		manager:   manager,
		cache:     cacheManager,
		tableName: tableName,
		dbName:    manager.DB().Migrator().CurrentDatabase(),
	}
}

// NewWithoutCache creates a database-only repository.
func NewWithoutCache[T model.Entity](manager *db.Manager) Repository[T] {
	return New[T](manager, nil)
}

func (r *GenericRepository[T]) cacheEnabled() bool {
	return r.cache != nil && r.cache.Enabled()
}

func (r *GenericRepository[T]) keyPrefix() string {
	prefix := "ormkit"
	if r.cache != nil && r.cache.Config().KeyPrefix != "" {
		prefix = r.cache.Config().KeyPrefix
	}
	return strings.Join([]string{prefix, r.dbName, r.tableName}, cacheKeySeparator)
}

func (r *GenericRepository[T]) cacheKey(op, suffix string) string {
	key := r.keyPrefix() + cacheKeySeparator + op
	if suffix != "" {
		key += cacheKeySeparator + suffix
	}
	return key
}

// cacheKeyFromQuery hashes the query and its arguments into a short,
// deterministic key segment.
func (r *GenericRepository[T]) cacheKeyFromQuery(op string, query any, args ...any) string {
	digest := xxhash.New()
	fmt.Fprintf(digest, "%v", query)
	for _, arg := range args {
		fmt.Fprintf(digest, "|%v", arg)
	}
	sum := fmt.Sprintf("%016x", digest.Sum64())
	if len(sum) > cacheKeyHashLength {
		sum = sum[:cacheKeyHashLength]
	}
	return r.cacheKey(op, sum)
}

func (r *GenericRepository[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := time.Duration(r.manager.Engine().QueryTimeout); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// cacheGet is a best-effort read; anything but a clean hit falls through to
// the database. Refined copies always miss: their results would not match
// the table-level keys.
func (r *GenericRepository[T]) cacheGet(ctx context.Context, key string, dest any) bool {
	if !r.cacheEnabled() || r.refined {
		return false
	}
	err := r.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !cache.IsKeyNotFound(err) {
		logger.FromContext(ctx).Debug("cache read failed", "key", key, "error", err)
	}
	return false
}

// cacheSet is best-effort; cache failures never fail the query. Refined
// copies never populate the table-level keys.
func (r *GenericRepository[T]) cacheSet(ctx context.Context, key string, value any) {
	if !r.cacheEnabled() || r.refined {
		return
	}
	if err := r.cache.Set(ctx, key, value, 0); err != nil {
		logger.FromContext(ctx).Debug("cache write failed", "key", key, "error", err)
	}
}

// FindByID finds a record by primary key.
func (r *GenericRepository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	if id == nil {
		return nil, fmt.Errorf("id cannot be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.cacheKey("find_by_id", fmt.Sprintf("%v", id))
	var entity T
	if r.cacheGet(ctx, key, &entity) {
		return &entity, nil
	}

	result := r.session.WithContext(ctx).First(&entity, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	r.cacheSet(ctx, key, entity)
	return &entity, nil
}

// FindAll returns every record of the table.
func (r *GenericRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.cacheKey("find_all", "")
	var entities []T
	if r.cacheGet(ctx, key, &entities) {
		return entities, nil
	}
	if err := r.session.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	r.cacheSet(ctx, key, entities)
	return entities, nil
}

// FindWhere returns the records matching the condition. Conditions built
// as *gorm.DB are not cached; their rendering is not deterministic.
func (r *GenericRepository[T]) FindWhere(ctx context.Context, query any, args ...any) ([]T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, isGormDB := query.(*gorm.DB)
	var key string
	if !isGormDB {
		key = r.cacheKeyFromQuery("find_where", query, args...)
		var entities []T
		if r.cacheGet(ctx, key, &entities) {
			return entities, nil
		}
	}

	var entities []T
	if err := r.session.WithContext(ctx).Where(query, args...).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !isGormDB {
		r.cacheSet(ctx, key, entities)
	}
	return entities, nil
}

// First returns the first record matching the condition, or nil.
func (r *GenericRepository[T]) First(ctx context.Context, query any, args ...any) (*T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, isGormDB := query.(*gorm.DB)
	var key string
	if !isGormDB {
		key = r.cacheKeyFromQuery("first", query, args...)
		var entity T
		if r.cacheGet(ctx, key, &entity) {
			return &entity, nil
		}
	}

	var entity T
	result := r.session.WithContext(ctx).Where(query, args...).First(&entity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	if !isGormDB {
		r.cacheSet(ctx, key, entity)
	}
	return &entity, nil
}

// Count returns the number of records in the table.
func (r *GenericRepository[T]) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.cacheKey("count", "")
	var count int64
	if r.cacheGet(ctx, key, &count) {
		return count, nil
	}
	var entity T
	if err := r.session.WithContext(ctx).Model(&entity).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	r.cacheSet(ctx, key, count)
	return count, nil
}

// Exists reports whether a record with the given primary key exists.
func (r *GenericRepository[T]) Exists(ctx context.Context, id any) (bool, error) {
	entity, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

// Preload adds associations to preload. Returns a refined copy that reads
// past the cache.
func (r *GenericRepository[T]) Preload(associations ...string) Repository[T] {
	clone := *r
	session := clone.session
	for _, association := range associations {
		session = session.Preload(association)
	}
	clone.session = session
	clone.refined = true
	return &clone
}

// Joins adds a join. Returns a refined copy that reads past the cache.
func (r *GenericRepository[T]) Joins(query string, args ...any) Repository[T] {
	clone := *r
	clone.session = clone.session.Joins(query, args...)
	clone.refined = true
	return &clone
}

// Order adds ordering. Returns a refined copy that reads past the cache.
func (r *GenericRepository[T]) Order(value any) Repository[T] {
	clone := *r
	clone.session = clone.session.Order(value)
	clone.refined = true
	return &clone
}

// Limit caps the result size. Returns a refined copy that reads past the
// cache.
func (r *GenericRepository[T]) Limit(limit int) Repository[T] {
	clone := *r
	clone.session = clone.session.Limit(max(limit, 0))
	clone.refined = true
	return &clone
}

// Offset skips leading rows. Returns a refined copy that reads past the
// cache.
func (r *GenericRepository[T]) Offset(offset int) Repository[T] {
	clone := *r
	clone.session = clone.session.Offset(max(offset, 0))
	clone.refined = true
	return &clone
}

// Create inserts a record and invalidates the table's cache.
func (r *GenericRepository[T]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.session.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return r.InvalidateCache(ctx)
}

// CreateBatch inserts records in one statement and invalidates the table's
// cache.
func (r *GenericRepository[T]) CreateBatch(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.session.WithContext(ctx).Create(entities).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return r.InvalidateCache(ctx)
}

// Update saves all fields of the record and invalidates the table's cache.
func (r *GenericRepository[T]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.session.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return r.InvalidateCache(ctx)
}

// Delete removes the record with the given primary key and invalidates the
// table's cache.
func (r *GenericRepository[T]) Delete(ctx context.Context, id any) error {
	if id == nil {
		return fmt.Errorf("id cannot be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var entity T
	if err := r.session.WithContext(ctx).Delete(&entity, id).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return r.InvalidateCache(ctx)
}

// InsertOrIgnore inserts the record, skipping unique-constraint conflicts,
// and invalidates the table's cache.
func (r *GenericRepository[T]) InsertOrIgnore(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := model.InsertOrIgnore(ctx, r.session, entity); err != nil {
		return err
	}
	return r.InvalidateCache(ctx)
}

// InsertOrUpdate upserts the record and invalidates the table's cache.
func (r *GenericRepository[T]) InsertOrUpdate(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := model.InsertOrUpdate(ctx, r.session, entity); err != nil {
		return err
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache removes every cached entry for the table. Cache failures
// are logged, not returned; the write already succeeded.
func (r *GenericRepository[T]) InvalidateCache(ctx context.Context) error {
	if !r.cacheEnabled() {
		return nil
	}
	if err := r.cache.DeleteByPattern(ctx, r.keyPrefix()+cacheKeySeparator+"*"); err != nil {
		logger.FromContext(ctx).Warn("cache invalidation failed", "table", r.tableName, "error", err)
	}
	return nil
}
