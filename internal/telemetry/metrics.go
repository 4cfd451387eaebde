package telemetry

import "sync"

// MemoryMetrics is a process-local Metrics implementation backed by a map.
type MemoryMetrics struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewMemoryMetrics returns an empty metrics store.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{counters: make(map[string]uint64)}
}

// Add increments a counter by delta.
func (m *MemoryMetrics) Add(key string, delta uint64) {
	m.mu.Lock()
	m.counters[key] += delta
	m.mu.Unlock()
}

// Store overwrites a counter with value.
func (m *MemoryMetrics) Store(key string, value uint64) {
	m.mu.Lock()
	m.counters[key] = value
	m.mu.Unlock()
}

// Snapshot copies the current counters for reporting.
func (m *MemoryMetrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}
