package db

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ammar0144/ormkit/pkg/logger"
)

// Duration is a time.Duration that decodes from either a duration string
// like "30s" or a plain integer of nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(v)
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML implements yaml.Unmarshaler. Plain numbers are tried first
// because YAML scalars also decode into strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var ns int64
	if err := node.Decode(&ns); err == nil {
		*d = Duration(ns)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// EngineConfig holds connection pool and GORM behavior settings shared by
// every dialect.
type EngineConfig struct {
	// Connection Pool Settings
	MaxOpenConns    int      `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int      `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`

	// GORM Settings
	PrepareStmt            bool     `json:"prepare_stmt" yaml:"prepare_stmt"`
	SkipDefaultTransaction bool     `json:"skip_default_transaction" yaml:"skip_default_transaction"`
	QueryTimeout           Duration `json:"query_timeout" yaml:"query_timeout"`

	// Logging
	LogLevel logger.Level `json:"log_level" yaml:"log_level"`
}

// DefaultEngineConfig returns pool settings suitable for most applications.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: Duration(time.Hour),
		ConnMaxIdleTime: Duration(30 * time.Minute),
		PrepareStmt:     true,
		QueryTimeout:    Duration(30 * time.Second),
		LogLevel:        logger.WarnLevel,
	}
}

// Validate checks the engine configuration.
func (c EngineConfig) Validate() error {
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout cannot be negative")
	}
	return nil
}

// EngineConfigFromJSON loads an EngineConfig from a JSON file, starting from
// defaults so omitted fields keep sane values.
func EngineConfigFromJSON(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read engine config %q: %w", path, err)
	}
	cfg := DefaultEngineConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// EngineConfigFromYAML loads an EngineConfig from a YAML file.
func EngineConfigFromYAML(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read engine config %q: %w", path, err)
	}
	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}
