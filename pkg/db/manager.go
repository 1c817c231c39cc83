package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ammar0144/ormkit/pkg/logger"
)

var (
	// instance holds the singleton database manager.
	// Protected by once for thread-safe initialization.
	instance *Manager
	once     sync.Once
)

// Manager owns a GORM engine for one configured dialect.
type Manager struct {
	dialect DialectConfig
	engine  EngineConfig
	db      *gorm.DB
	log     logger.Logger
}

// Open creates a manager and connects to the database described by the
// dialect config, applying the engine's pool settings to the underlying
// sql.DB.
func Open(dialect DialectConfig, engine EngineConfig) (*Manager, error) {
	return OpenWithLogger(dialect, engine, logger.Default())
}

// OpenWithLogger is Open with an explicit logger for engine-level logging.
func OpenWithLogger(dialect DialectConfig, engine EngineConfig, log logger.Logger) (*Manager, error) {
	if dialect == nil {
		return nil, fmt.Errorf("dialect config cannot be nil")
	}
	if err := dialect.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dialect config: %w", err)
	}
	if err := engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if log == nil {
		log = logger.Default()
	}

	dialector, err := dialect.Dialector()
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		PrepareStmt:            engine.PrepareStmt,
		SkipDefaultTransaction: engine.SkipDefaultTransaction,
		Logger:                 logger.NewGormLogger(log, logger.GormLevel(engine.LogLevel)),
	}

	gdb, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect.Name(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(engine.MaxOpenConns)
	sqlDB.SetMaxIdleConns(engine.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(engine.ConnMaxLifetime))
	sqlDB.SetConnMaxIdleTime(time.Duration(engine.ConnMaxIdleTime))

	log.Debug("database opened", "driver", dialect.Name())

	return &Manager{
		dialect: dialect,
		engine:  engine,
		db:      gdb,
		log:     log,
	}, nil
}

// OpenSingleton returns the process-wide manager, opening it on first call.
//
// The first call determines the configuration; subsequent calls return the
// same instance and ignore their arguments. If the first call fails the
// singleton remains uninitialized until the process restarts. For tests,
// use Open directly.
func OpenSingleton(dialect DialectConfig, engine EngineConfig) (*Manager, error) {
	var initErr error
	once.Do(func() {
		instance, initErr = Open(dialect, engine)
	})
	if instance == nil {
		if initErr != nil {
			return nil, fmt.Errorf("singleton initialization failed (permanent until restart): %w", initErr)
		}
		return nil, fmt.Errorf("singleton initialization failed in an earlier call (permanent until restart)")
	}
	return instance, nil
}

// DB returns the GORM database handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// SqlDB returns the underlying sql.DB instance.
func (m *Manager) SqlDB() (*sql.DB, error) {
	return m.db.DB()
}

// DriverName returns the dialect's driver name (sqlite, postgres, mysql,
// sqlserver).
func (m *Manager) DriverName() string {
	return m.db.Dialector.Name()
}

// Dialect returns the dialect configuration the manager was opened with.
func (m *Manager) Dialect() DialectConfig {
	return m.dialect
}

// Engine returns the engine configuration the manager was opened with.
func (m *Manager) Engine() EngineConfig {
	return m.engine
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping tests the database connection.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (m *Manager) Stats() (sql.DBStats, error) {
	sqlDB, err := m.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// withQueryTimeout derives a context honoring the configured query timeout.
func (m *Manager) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.engine.QueryTimeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.engine.QueryTimeout))
	}
	return ctx, func() {}
}
