package cache

import "sync/atomic"

// Metrics tracks cache performance counters.
type Metrics struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	errors        atomic.Uint64
	invalidations atomic.Uint64
	chunkedOps    atomic.Uint64
}

// NewMetrics creates a metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordHit()          { m.hits.Add(1) }
func (m *Metrics) recordMiss()         { m.misses.Add(1) }
func (m *Metrics) recordError()        { m.errors.Add(1) }
func (m *Metrics) recordInvalidation() { m.invalidations.Add(1) }
func (m *Metrics) recordChunked()      { m.chunkedOps.Add(1) }

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Errors        uint64 `json:"errors"`
	Invalidations uint64 `json:"invalidations"`
	ChunkedOps    uint64 `json:"chunked_ops"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		Errors:        m.errors.Load(),
		Invalidations: m.invalidations.Load(),
		ChunkedOps:    m.chunkedOps.Load(),
	}
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (m *Metrics) HitRate() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
