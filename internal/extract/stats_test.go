package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestCallStatsSnapshot(t *testing.T) {
	s := NewCallStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		s.Record(time.Duration(ms)*time.Millisecond, OutcomeOK)
	}
	s.Record(50*time.Millisecond, OutcomeThrottled)
	s.Record(3*time.Second, OutcomeFailed)

	want := StatsSnapshot{
		Calls:     7,
		OK:        5,
		Throttled: 1,
		Failed:    1,
		ErrorRate: 2.0 / 7.0,
		MinMs:     50,
		MaxMs:     500,
		AvgMs:     1550.0 / 6.0,
		P50Ms:     250,
		P95Ms:     475,
	}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCallStatsOnlyFailures(t *testing.T) {
	s := NewCallStats(time.Hour)
	s.Record(time.Second, OutcomeFailed)
	snap := s.Snapshot()
	if snap.Calls != 1 || snap.Failed != 1 || snap.ErrorRate != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.MaxMs != 0 || snap.P50Ms != 0 {
		t.Errorf("failed calls should not count toward latency: %+v", snap)
	}
}

func TestCallStatsWindowExpiry(t *testing.T) {
	s := NewCallStats(time.Minute)
	clock, advance := fixedClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.now = clock

	s.Record(100*time.Millisecond, OutcomeOK)
	advance(30 * time.Second)
	s.Record(200*time.Millisecond, OutcomeThrottled)
	advance(45 * time.Second)

	snap := s.Snapshot()
	if snap.Calls != 1 || snap.Throttled != 1 {
		t.Fatalf("expected only the recent call, got %+v", snap)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Errorf("expected min=max=200, got %d/%d", snap.MinMs, snap.MaxMs)
	}

	advance(time.Hour)
	if got := s.Snapshot(); got != (StatsSnapshot{}) {
		t.Errorf("expected empty snapshot, got %+v", got)
	}
}

func TestCallStatsClampsNegativeDuration(t *testing.T) {
	s := NewCallStats(0)
	s.Record(-time.Second, OutcomeOK)
	if snap := s.Snapshot(); snap.Calls != 1 || snap.MinMs != 0 {
		t.Errorf("expected a single zero-latency call, got %+v", snap)
	}
}
