// Package cache provides the Redis-backed query cache used by the
// repository layer. Values are serialized with msgpack, compressed above a
// threshold, and chunked when they exceed the single-key limit.
package cache

import (
	"fmt"
	"time"
)

// Config holds cache configuration.
type Config struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`
	KeyPrefix  string        `json:"key_prefix" yaml:"key_prefix"` // Default: ormkit

	// Redis Connection
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	Database int    `json:"database" yaml:"database"`

	// Connection Pool
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	MaxConnAge   time.Duration `json:"max_conn_age" yaml:"max_conn_age"`
	PoolTimeout  time.Duration `json:"pool_timeout" yaml:"pool_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// Timeouts
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// Clustering
	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`

	// Large Value Handling
	LargeValue LargeValueConfig `json:"large_value" yaml:"large_value"`

	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics"`
}

// ClusterConfig enables Redis Cluster mode.
type ClusterConfig struct {
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Addresses []string `json:"addresses" yaml:"addresses"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"password" yaml:"password"`
}

// LargeValueConfig controls chunking and compression of large values.
type LargeValueConfig struct {
	MaxValueSize      int  `json:"max_value_size" yaml:"max_value_size"`         // Maximum total size per logical value (bytes)
	ChunkSize         int  `json:"chunk_size" yaml:"chunk_size"`                 // Size per chunk (bytes)
	CompressThreshold int  `json:"compress_threshold" yaml:"compress_threshold"` // Compress above this size
	EnableCompression bool `json:"enable_compression" yaml:"enable_compression"`
	EnableChunking    bool `json:"enable_chunking" yaml:"enable_chunking"`
}

// DefaultConfig returns a cache configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		DefaultTTL:   time.Hour,
		KeyPrefix:    "ormkit",
		Host:         "localhost",
		Port:         6379,
		Database:     0,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxConnAge:   time.Hour,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
		LargeValue: LargeValueConfig{
			MaxValueSize:      10 * 1024 * 1024,
			ChunkSize:         2 * 1024 * 1024,
			CompressThreshold: 100 * 1024,
			EnableCompression: true,
			EnableChunking:    true,
		},
		EnableMetrics: true,
	}
}

// Validate checks the cache configuration. A disabled cache is always
// valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Host == "" && !c.IsClusterMode() {
		return fmt.Errorf("cache host is required when cache is enabled")
	}
	if c.Port <= 0 && !c.IsClusterMode() {
		return fmt.Errorf("cache port must be positive")
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("default_ttl must be positive when cache is enabled")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1")
	}
	if c.LargeValue.EnableChunking && c.LargeValue.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive when chunking is enabled")
	}
	return nil
}

// Addr returns the redis connection address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsClusterMode reports whether cluster mode is configured.
func (c *Config) IsClusterMode() bool {
	return c.Cluster.Enabled && len(c.Cluster.Addresses) > 0
}
