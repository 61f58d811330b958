package extract

import (
	"slices"
	"sync"
	"time"
)

// Outcome classifies one completion call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeThrottled covers 429 and 5xx replies, which the retry layer
	// may repeat.
	OutcomeThrottled
	OutcomeFailed
)

type call struct {
	at      time.Time
	elapsed time.Duration
	outcome Outcome
}

// StatsSnapshot summarises the calls inside the window. Latency figures only
// count calls that got a reply.
type StatsSnapshot struct {
	Calls     int     `json:"calls"`
	OK        int     `json:"ok"`
	Throttled int     `json:"throttled"`
	Failed    int     `json:"failed"`
	ErrorRate float64 `json:"error_rate"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
}

// CallStats keeps completion calls made within the last window.
type CallStats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{window: window, now: time.Now}
}

// Record adds one call. Transport errors that never produced a reply are
// recorded as OutcomeFailed with the time spent waiting.
func (s *CallStats) Record(elapsed time.Duration, outcome Outcome) {
	if elapsed < 0 {
		elapsed = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expire(now)
	s.calls = append(s.calls, call{at: now, elapsed: elapsed, outcome: outcome})
}

func (s *CallStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(s.now())

	var snap StatsSnapshot
	var ms []int64
	var total int64
	for _, c := range s.calls {
		snap.Calls++
		switch c.outcome {
		case OutcomeOK:
			snap.OK++
		case OutcomeThrottled:
			snap.Throttled++
		default:
			snap.Failed++
		}
		if c.outcome != OutcomeFailed {
			v := c.elapsed.Milliseconds()
			ms = append(ms, v)
			total += v
		}
	}
	if snap.Calls > 0 {
		snap.ErrorRate = float64(snap.Throttled+snap.Failed) / float64(snap.Calls)
	}
	if len(ms) == 0 {
		return snap
	}

	slices.Sort(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = interpolate(ms, 0.50)
	snap.P95Ms = interpolate(ms, 0.95)
	return snap
}

// expire drops calls older than the window. calls is ordered by time.
func (s *CallStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.calls) && s.calls[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.calls = slices.Delete(s.calls, 0, i)
	}
}

// interpolate returns the q-quantile (0..1) of sorted with linear
// interpolation between neighbours.
func interpolate(sorted []int64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
