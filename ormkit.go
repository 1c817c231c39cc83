// Package ormkit is a thin convenience layer over GORM: per-dialect
// connection configuration, session lifecycle managers, a statement
// facade with dialect-aware conflict handling, declarative model helpers,
// a cache-first generic repository, and authentication helpers.
package ormkit

import (
	"github.com/ammar0144/ormkit/pkg/auth"
	"github.com/ammar0144/ormkit/pkg/cache"
	"github.com/ammar0144/ormkit/pkg/db"
	"github.com/ammar0144/ormkit/pkg/model"
	"github.com/ammar0144/ormkit/pkg/repository"
)

// Dialect configurations.
type (
	SQLiteConfig    = db.SQLiteConfig
	PostgresConfig  = db.PostgresConfig
	SQLServerConfig = db.SQLServerConfig
	MySQLConfig     = db.MySQLConfig
	EngineConfig    = db.EngineConfig
)

// DefaultEngineConfig returns pool settings suitable for most applications.
func DefaultEngineConfig() EngineConfig {
	return db.DefaultEngineConfig()
}

// Open connects to the database described by the dialect config.
func Open(dialect db.DialectConfig, engine EngineConfig) (*db.Manager, error) {
	return db.Open(dialect, engine)
}

// NewSessionFactory creates a session factory for the dialect.
func NewSessionFactory(dialect db.DialectConfig, engine EngineConfig) *db.SessionFactory {
	return db.NewSessionFactory(dialect, engine)
}

// Entity is the contract repository entities must implement.
type Entity = model.Entity

// Model is the base declarative model.
type Model = model.Model

// Repository provides the generic repository interface.
type Repository[T Entity] interface {
	repository.Repository[T]
}

// NewRepository creates a repository. A nil cache manager disables
// caching.
func NewRepository[T Entity](manager *db.Manager, cacheManager *cache.Manager) Repository[T] {
	return repository.New[T](manager, cacheManager)
}

// CacheConfig represents cache configuration.
type CacheConfig = cache.Config

// NewCacheManager creates a Redis cache manager.
func NewCacheManager(config *CacheConfig) (*cache.Manager, error) {
	return cache.NewManager(config)
}

// AuthConfig represents authentication configuration.
type AuthConfig = auth.Config

// NewAuth creates the authentication helper.
func NewAuth(config AuthConfig) (*auth.Auth, error) {
	return auth.New(config)
}
