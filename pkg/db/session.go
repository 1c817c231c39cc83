package db

import (
	"context"

	"gorm.io/gorm"
)

// SessionFactory builds session managers for one dialect + engine pair.
type SessionFactory struct {
	Dialect DialectConfig
	Engine  EngineConfig
}

// NewSessionFactory creates a factory from configuration.
func NewSessionFactory(dialect DialectConfig, engine EngineConfig) *SessionFactory {
	return &SessionFactory{Dialect: dialect, Engine: engine}
}

// SessionManager opens the database and returns a session manager over it.
func (f *SessionFactory) SessionManager() (*SessionManager, error) {
	manager, err := Open(f.Dialect, f.Engine)
	if err != nil {
		return nil, err
	}
	return NewSessionManager(manager), nil
}

// SessionManager hands out short-lived GORM sessions from a shared engine.
// Each session carries its own statement state; the underlying connection
// pool is shared.
type SessionManager struct {
	manager *Manager
}

// NewSessionManager wraps an open manager.
func NewSessionManager(manager *Manager) *SessionManager {
	return &SessionManager{manager: manager}
}

// Manager returns the underlying database manager.
func (s *SessionManager) Manager() *Manager {
	return s.manager
}

// Session returns a fresh session.
func (s *SessionManager) Session() *gorm.DB {
	return s.manager.db.Session(&gorm.Session{NewDB: true})
}

// SessionContext returns a fresh session bound to ctx.
func (s *SessionManager) SessionContext(ctx context.Context) *gorm.DB {
	return s.Session().WithContext(ctx)
}

// WithSession runs fn with a fresh session.
func (s *SessionManager) WithSession(fn func(session *gorm.DB) error) error {
	return fn(s.Session())
}

// WithSessionContext runs fn with a session bound to ctx, applying the
// engine's query timeout.
func (s *SessionManager) WithSessionContext(ctx context.Context, fn func(session *gorm.DB) error) error {
	ctx, cancel := s.manager.withQueryTimeout(ctx)
	defer cancel()
	return fn(s.SessionContext(ctx))
}

// Transaction runs fn inside a database transaction bound to ctx. The
// transaction is committed when fn returns nil and rolled back otherwise.
func (s *SessionManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := s.manager.withQueryTimeout(ctx)
	defer cancel()
	return s.SessionContext(ctx).Transaction(fn)
}

// Close closes the underlying engine.
func (s *SessionManager) Close() error {
	return s.manager.Close()
}
