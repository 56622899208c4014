// Package stats collects relay counters. It sits below both the UDP front
// end (which writes) and the management API (which reads snapshots), so it
// imports neither.
package stats

import "sync/atomic"

// Handling outcomes, shared by the counters and the query log.
const (
	OutcomeForwarded = "forwarded"
	OutcomeFormErr   = "formerr"
	OutcomeServFail  = "servfail"
	OutcomeDropped   = "dropped"
)

// Stats collects relay statistics. All methods are safe for concurrent use.
type Stats struct {
	queriesTotal   atomic.Uint64
	forwarded      atomic.Uint64
	formErr        atomic.Uint64
	servFail       atomic.Uint64
	dropped        atomic.Uint64
	rateLimited    atomic.Uint64
	responseBytes  atomic.Uint64
	latencyTotalNs atomic.Uint64
}

// New creates a new statistics collector.
func New() *Stats {
	return &Stats{}
}

// RecordQuery counts one incoming datagram.
func (s *Stats) RecordQuery() {
	s.queriesTotal.Add(1)
}

// RecordOutcome counts one handled query by outcome.
func (s *Stats) RecordOutcome(outcome string, responseBytes int) {
	switch outcome {
	case OutcomeForwarded:
		s.forwarded.Add(1)
	case OutcomeFormErr:
		s.formErr.Add(1)
	case OutcomeServFail:
		s.servFail.Add(1)
	case OutcomeDropped:
		s.dropped.Add(1)
	}
	if responseBytes > 0 {
		s.responseBytes.Add(uint64(responseBytes))
	}
}

// RecordRateLimited counts a datagram refused by admission control.
func (s *Stats) RecordRateLimited() {
	s.rateLimited.Add(1)
}

// RecordLatency records one query's handling latency in nanoseconds.
func (s *Stats) RecordLatency(ns int64) {
	if ns > 0 {
		s.latencyTotalNs.Add(uint64(ns))
	}
}

// Snapshot is a point-in-time view of the relay statistics.
type Snapshot struct {
	QueriesTotal  uint64  `json:"queries_total"`
	Forwarded     uint64  `json:"forwarded"`
	FormErr       uint64  `json:"formerr"`
	ServFail      uint64  `json:"servfail"`
	Dropped       uint64  `json:"dropped"`
	RateLimited   uint64  `json:"rate_limited"`
	ResponseBytes uint64  `json:"response_bytes"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() Snapshot {
	total := s.queriesTotal.Load()
	latencyNs := s.latencyTotalNs.Load()

	avgLatencyMs := 0.0
	if total > 0 {
		avgLatencyMs = float64(latencyNs) / float64(total) / 1e6
	}

	return Snapshot{
		QueriesTotal:  total,
		Forwarded:     s.forwarded.Load(),
		FormErr:       s.formErr.Load(),
		ServFail:      s.servFail.Load(),
		Dropped:       s.dropped.Load(),
		RateLimited:   s.rateLimited.Load(),
		ResponseBytes: s.responseBytes.Load(),
		AvgLatencyMs:  avgLatencyMs,
	}
}
