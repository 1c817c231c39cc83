package logger

import (
	"context"
	"errors"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts the ormkit Logger to GORM's logger.Interface so engine
// logging flows through the same facade as the rest of the library.
type GormLogger struct {
	log           Logger
	level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger wraps l for use as a GORM logger.
func NewGormLogger(l Logger, level gormlogger.LogLevel) *GormLogger {
	if l == nil {
		l = Default()
	}
	return &GormLogger{
		log:           l.With("component", "gorm"),
		level:         level,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// GormLevel maps a facade level onto GORM's log levels.
func GormLevel(level Level) gormlogger.LogLevel {
	switch level {
	case DebugLevel:
		return gormlogger.Info
	case InfoLevel, WarnLevel:
		return gormlogger.Warn
	case ErrorLevel:
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.log.Info(msg, "args", args)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(msg, "args", args)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.log.Error(msg, "args", args)
	}
}

func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Error("query failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log.Warn("slow query", "elapsed", elapsed, "threshold", g.SlowThreshold, "rows", rows, "sql", sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.log.Debug("query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
