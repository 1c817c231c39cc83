package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func newBufferLogger(level Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&Config{Level: level, Output: &buf})
	return l, &buf
}

func TestLogger(t *testing.T) {
	t.Run("Should write structured messages", func(t *testing.T) {
		l, buf := newBufferLogger(InfoLevel)
		l.Info("database opened", "driver", "sqlite")
		out := buf.String()
		assert.Contains(t, out, "database opened")
		assert.Contains(t, out, "driver")
		assert.Contains(t, out, "sqlite")
	})

	t.Run("Should suppress messages below the level", func(t *testing.T) {
		l, buf := newBufferLogger(WarnLevel)
		l.Debug("hidden")
		l.Info("also hidden")
		assert.Empty(t, buf.String())

		l.Warn("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("Should carry fields added with With", func(t *testing.T) {
		l, buf := newBufferLogger(InfoLevel)
		l.With("component", "cache").Info("hit")
		out := buf.String()
		assert.Contains(t, out, "component")
		assert.Contains(t, out, "cache")
	})

	t.Run("Should emit json when configured", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&Config{Level: InfoLevel, Output: &buf, JSON: true})
		l.Info("hello", "key", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("Should fall back to info for unknown levels", func(t *testing.T) {
		l, buf := newBufferLogger(Level("bogus"))
		l.Debug("hidden")
		assert.Empty(t, buf.String())
		l.Info("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestDefault(t *testing.T) {
	t.Run("Should replace and restore the default logger", func(t *testing.T) {
		original := Default()
		t.Cleanup(func() { SetDefault(original) })

		l, buf := newBufferLogger(InfoLevel)
		SetDefault(l)
		Default().Info("through default")
		assert.Contains(t, buf.String(), "through default")
	})

	t.Run("Should ignore a nil logger", func(t *testing.T) {
		original := Default()
		SetDefault(nil)
		assert.Equal(t, original, Default())
	})
}

func TestContext(t *testing.T) {
	t.Run("Should store and retrieve a logger", func(t *testing.T) {
		l, buf := newBufferLogger(InfoLevel)
		ctx := ContextWithLogger(context.Background(), l)
		FromContext(ctx).Info("from context")
		assert.Contains(t, buf.String(), "from context")
	})

	t.Run("Should fall back to the default logger", func(t *testing.T) {
		assert.Equal(t, Default(), FromContext(context.Background()))
		assert.Equal(t, Default(), FromContext(nil)) //nolint:staticcheck
	})
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel(DebugLevel))
	assert.Equal(t, gormlogger.Warn, GormLevel(InfoLevel))
	assert.Equal(t, gormlogger.Warn, GormLevel(WarnLevel))
	assert.Equal(t, gormlogger.Error, GormLevel(ErrorLevel))
}

func TestGormLogger(t *testing.T) {
	t.Run("Should log failed queries", func(t *testing.T) {
		l, buf := newBufferLogger(DebugLevel)
		gl := NewGormLogger(l, gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT 1", 0
		}, errors.New("broken"))
		out := buf.String()
		assert.Contains(t, out, "query failed")
		assert.Contains(t, out, "SELECT 1")
	})

	t.Run("Should skip record not found errors", func(t *testing.T) {
		l, buf := newBufferLogger(DebugLevel)
		gl := NewGormLogger(l, gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT 1", 0
		}, gormlogger.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("Should warn about slow queries", func(t *testing.T) {
		l, buf := newBufferLogger(DebugLevel)
		gl := NewGormLogger(l, gormlogger.Warn)
		gl.SlowThreshold = time.Nanosecond
		gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)
		assert.Contains(t, buf.String(), "slow query")
	})

	t.Run("Should stay silent when disabled", func(t *testing.T) {
		l, buf := newBufferLogger(DebugLevel)
		gl := NewGormLogger(l, gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT 1", 0
		}, errors.New("broken"))
		assert.Empty(t, buf.String())
	})

	t.Run("Should change level without mutating the original", func(t *testing.T) {
		l, buf := newBufferLogger(DebugLevel)
		gl := NewGormLogger(l, gormlogger.Silent)
		verbose := gl.LogMode(gormlogger.Info)

		verbose.Info(context.Background(), "visible")
		assert.Contains(t, buf.String(), "visible")

		buf.Reset()
		gl.Info(context.Background(), "hidden")
		assert.Empty(t, buf.String())
	})
}
