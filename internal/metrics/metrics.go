package metrics

import "sync/atomic"

// MetricID identifies a single counter slot.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReplay
	MetricLogout
	MetricAccessRevoked
	MetricResetRequest
	MetricResetSuccess
	MetricResetFailure
	MetricNotifierFailure
	MetricSessionsRevokedBulk

	MetricIDCount
)

// Config controls whether metric recording is active.
type Config struct {
	Enabled bool
}

// paddedCounter keeps each slot on its own cache line so concurrent
// increments of different metrics do not false-share.
type paddedCounter struct {
	v atomic.Uint64
	_ [56]byte
}

// Metrics holds lock-free counters. The write path is allocation-free.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]paddedCounter
}

// Snapshot is a point-in-time deep copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].v.Add(1)
}

func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id < 0 || id >= MetricIDCount {
		return 0
	}
	return m.counters[id].v.Load()
}

func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = m.counters[id].v.Load()
	}
	return snap
}
