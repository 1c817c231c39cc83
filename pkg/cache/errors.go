package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrDisabled is returned when attempting operations on a disabled cache.
	ErrDisabled = errors.New("cache is disabled")

	// ErrClientNotInitialized is returned when the redis client is nil.
	ErrClientNotInitialized = errors.New("cache client not initialized")

	// ErrKeyNotFound is returned when a cache key doesn't exist.
	ErrKeyNotFound = errors.New("cache key not found")

	// ErrConnectionFailed is returned when the redis connection cannot be
	// established.
	ErrConnectionFailed = errors.New("cache connection failed")

	// ErrValueTooLarge is returned when a value exceeds the configured
	// maximum size.
	ErrValueTooLarge = errors.New("cache value too large")

	// ErrSerializationFailed is returned when encoding or decoding a cached
	// value fails.
	ErrSerializationFailed = errors.New("cache serialization failed")
)

// IsKeyNotFound reports whether err is ErrKeyNotFound.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsDisabled reports whether err is ErrDisabled.
func IsDisabled(err error) bool {
	return errors.Is(err, ErrDisabled)
}
