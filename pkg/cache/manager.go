package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ammar0144/ormkit/pkg/logger"
)

// Payload tags. Every stored value starts with one of these so Get can
// decode without side-channel metadata.
const (
	tagRaw     byte = 0x00 // msgpack
	tagGzip    byte = 0x01 // gzip-compressed msgpack
	tagChunked byte = 0x02 // chunk meta, followed by the ASCII chunk count
)

const chunkKeySuffix = ":_internal:chunk:"

// Manager manages the redis connection and cache operations.
type Manager struct {
	config  *Config
	client  redis.UniversalClient
	metrics *Metrics
	log     logger.Logger
}

// NewManager creates a cache manager. With a disabled config the manager is
// inert: every operation returns ErrDisabled.
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}
	m := &Manager{
		config:  config,
		metrics: NewMetrics(),
		log:     logger.Default().With("component", "cache"),
	}
	m.initClient()
	return m, nil
}

func (m *Manager) initClient() {
	if !m.config.Enabled {
		return
	}
	if m.config.IsClusterMode() {
		m.client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           m.config.Cluster.Addresses,
			Username:        m.config.Cluster.Username,
			Password:        m.config.Cluster.Password,
			PoolSize:        m.config.PoolSize,
			MinIdleConns:    m.config.MinIdleConns,
			ConnMaxLifetime: m.config.MaxConnAge,
			PoolTimeout:     m.config.PoolTimeout,
			ConnMaxIdleTime: m.config.IdleTimeout,
			ReadTimeout:     m.config.ReadTimeout,
			WriteTimeout:    m.config.WriteTimeout,
			DialTimeout:     m.config.DialTimeout,
		})
		return
	}
	m.client = redis.NewClient(&redis.Options{
		Addr:            m.config.Addr(),
		Password:        m.config.Password,
		DB:              m.config.Database,
		PoolSize:        m.config.PoolSize,
		MinIdleConns:    m.config.MinIdleConns,
		ConnMaxLifetime: m.config.MaxConnAge,
		PoolTimeout:     m.config.PoolTimeout,
		ConnMaxIdleTime: m.config.IdleTimeout,
		ReadTimeout:     m.config.ReadTimeout,
		WriteTimeout:    m.config.WriteTimeout,
		DialTimeout:     m.config.DialTimeout,
	})
}

// Config returns the manager's configuration.
func (m *Manager) Config() *Config {
	return m.config
}

// Metrics returns the manager's counters.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// Enabled reports whether the cache is usable.
func (m *Manager) Enabled() bool {
	return m.config.Enabled && m.client != nil
}

// Close closes the redis connection.
func (m *Manager) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Ping tests the redis connection. A disabled cache pings successfully.
func (m *Manager) Ping(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// Set stores a value under key. Values above the compression threshold are
// gzipped; values above the chunk size are split across keys. A
// non-positive ttl uses the configured default.
func (m *Manager) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !m.config.Enabled {
		return ErrDisabled
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	payload, err := m.encode(value)
	if err != nil {
		return err
	}
	if max := m.config.LargeValue.MaxValueSize; max > 0 && len(payload) > max {
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(payload))
	}
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}
	// An earlier chunked value under the same key would leave its chunk
	// keys behind, so sweep them before overwriting.
	m.clearChunks(ctx, key)
	if m.config.LargeValue.EnableChunking && len(payload) > m.config.LargeValue.ChunkSize {
		return m.setChunked(ctx, key, payload, ttl)
	}
	if err := m.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		m.metrics.recordError()
		return fmt.Errorf("failed to set cache key %q: %w", key, err)
	}
	return nil
}

func (m *Manager) setChunked(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	chunkSize := m.config.LargeValue.ChunkSize
	count := (len(payload) + chunkSize - 1) / chunkSize

	pipe := m.client.TxPipeline()
	meta := append([]byte{tagChunked}, strconv.Itoa(count)...)
	pipe.Set(ctx, key, meta, ttl)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(payload))
		pipe.Set(ctx, m.chunkKey(key, i), payload[start:end], ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		m.metrics.recordError()
		return fmt.Errorf("failed to set chunked cache key %q: %w", key, err)
	}
	m.metrics.recordChunked()
	m.log.Debug("stored chunked value", "key", key, "chunks", count, "bytes", len(payload))
	return nil
}

// Get loads the value stored under key into dest. Returns ErrKeyNotFound
// when the key does not exist.
func (m *Manager) Get(ctx context.Context, key string, dest any) error {
	if !m.config.Enabled {
		return ErrDisabled
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	data, err := m.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			m.metrics.recordMiss()
			return ErrKeyNotFound
		}
		m.metrics.recordError()
		return fmt.Errorf("failed to get cache key %q: %w", key, err)
	}
	if len(data) > 0 && data[0] == tagChunked {
		data, err = m.getChunks(ctx, key, data)
		if err != nil {
			return err
		}
	}
	if err := m.decode(data, dest); err != nil {
		m.metrics.recordError()
		return err
	}
	m.metrics.recordHit()
	return nil
}

func (m *Manager) getChunks(ctx context.Context, key string, meta []byte) ([]byte, error) {
	count, err := strconv.Atoi(string(meta[1:]))
	if err != nil || count < 1 {
		return nil, fmt.Errorf("%w: corrupt chunk meta for %q", ErrSerializationFailed, key)
	}
	var payload []byte
	for i := 0; i < count; i++ {
		chunk, err := m.client.Get(ctx, m.chunkKey(key, i)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// A missing chunk means a partially evicted value.
				m.metrics.recordMiss()
				return nil, ErrKeyNotFound
			}
			m.metrics.recordError()
			return nil, fmt.Errorf("failed to get chunk %d of %q: %w", i, key, err)
		}
		payload = append(payload, chunk...)
	}
	return payload, nil
}

// clearChunks removes the chunk keys of a previously stored chunked value.
// Best effort, a failed read just leaves the sweep to key expiry.
func (m *Manager) clearChunks(ctx context.Context, key string) {
	data, err := m.client.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 || data[0] != tagChunked {
		return
	}
	count, err := strconv.Atoi(string(data[1:]))
	if err != nil {
		return
	}
	for i := 0; i < count; i++ {
		m.client.Del(ctx, m.chunkKey(key, i))
	}
}

// Delete removes a key and its chunks.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if !m.Enabled() {
		return nil
	}
	m.clearChunks(ctx, key)
	if err := m.client.Del(ctx, key).Err(); err != nil {
		m.metrics.recordError()
		return fmt.Errorf("failed to delete cache key %q: %w", key, err)
	}
	return nil
}

// DeleteByPattern removes every key matching the glob pattern via SCAN.
func (m *Manager) DeleteByPattern(ctx context.Context, pattern string) error {
	if !m.Enabled() {
		return nil
	}
	iter := m.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		m.metrics.recordError()
		return fmt.Errorf("failed to scan cache pattern %q: %w", pattern, err)
	}
	if len(keys) > 0 {
		if err := m.client.Del(ctx, keys...).Err(); err != nil {
			m.metrics.recordError()
			return fmt.Errorf("failed to delete cache pattern %q: %w", pattern, err)
		}
	}
	m.metrics.recordInvalidation()
	m.log.Debug("invalidated cache", "pattern", pattern, "keys", len(keys))
	return nil
}

func (m *Manager) chunkKey(key string, i int) string {
	return key + chunkKeySuffix + strconv.Itoa(i)
}

// encode serializes with msgpack and compresses when worthwhile.
func (m *Manager) encode(value any) ([]byte, error) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	lv := m.config.LargeValue
	if lv.EnableCompression && lv.CompressThreshold > 0 && len(data) > lv.CompressThreshold {
		var buf bytes.Buffer
		buf.WriteByte(tagGzip)
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		if err := gz.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		// Only keep the compressed form when it actually shrank.
		if buf.Len() < len(data)+1 {
			return buf.Bytes(), nil
		}
	}
	return append([]byte{tagRaw}, data...), nil
}

func (m *Manager) decode(payload []byte, dest any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrSerializationFailed)
	}
	data := payload[1:]
	switch payload[0] {
	case tagRaw:
	case tagGzip:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		defer gz.Close()
		data, err = io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
	default:
		return fmt.Errorf("%w: unknown payload tag %d", ErrSerializationFailed, payload[0])
	}
	if err := msgpack.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return nil
}
