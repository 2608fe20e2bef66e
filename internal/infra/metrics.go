package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	lookupsTotal   atomic.Uint64 // resolvePrice invocations
	sourceAttempts atomic.Uint64 // individual source GETs
	sourceHits     atomic.Uint64 // sources that won a chain
	resolveMisses  atomic.Uint64 // chains that yielded no price
	rateRefreshOK  atomic.Uint64
	rateRefreshErr atomic.Uint64

	// Gauges
	lastCycleMs atomic.Int64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordLookup records the start of one price resolution chain.
func (m *Metrics) RecordLookup() {
	m.lookupsTotal.Add(1)
}

// RecordSourceAttempt records one outbound source call.
func (m *Metrics) RecordSourceAttempt() {
	m.sourceAttempts.Add(1)
}

// RecordSourceHit records a source winning a chain.
func (m *Metrics) RecordSourceHit() {
	m.sourceHits.Add(1)
}

// RecordResolveMiss records a chain that exhausted every source.
func (m *Metrics) RecordResolveMiss() {
	m.resolveMisses.Add(1)
}

// RecordRateRefresh records a rate table refresh outcome.
func (m *Metrics) RecordRateRefresh(ok bool) {
	if ok {
		m.rateRefreshOK.Add(1)
	} else {
		m.rateRefreshErr.Add(1)
	}
}

// SetLastCycleDuration records how long the latest poll cycle took.
func (m *Metrics) SetLastCycleDuration(d time.Duration) {
	m.lastCycleMs.Store(d.Milliseconds())
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	LookupsTotal   uint64
	SourceAttempts uint64
	SourceHits     uint64
	ResolveMisses  uint64
	RateRefreshOK  uint64
	RateRefreshErr uint64
	LastCycleMs    int64
	Timestamp      time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		LookupsTotal:   m.lookupsTotal.Load(),
		SourceAttempts: m.sourceAttempts.Load(),
		SourceHits:     m.sourceHits.Load(),
		ResolveMisses:  m.resolveMisses.Load(),
		RateRefreshOK:  m.rateRefreshOK.Load(),
		RateRefreshErr: m.rateRefreshErr.Load(),
		LastCycleMs:    m.lastCycleMs.Load(),
		Timestamp:      time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.lookupsTotal.Store(0)
	m.sourceAttempts.Store(0)
	m.sourceHits.Store(0)
	m.resolveMisses.Store(0)
	m.rateRefreshOK.Store(0)
	m.rateRefreshErr.Store(0)
	m.lastCycleMs.Store(0)
}
