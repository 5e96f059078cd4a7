package health

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Stats counts probe activity for the status surface. Counters are written by
// the monitor goroutine and read concurrently by the status endpoint.
type Stats struct {
	checks      *xsync.Counter
	failures    *xsync.Counter
	transitions *xsync.Counter
	lastLatency atomic.Int64
}

func NewStats() *Stats {
	return &Stats{
		checks:      xsync.NewCounter(),
		failures:    xsync.NewCounter(),
		transitions: xsync.NewCounter(),
	}
}

func (s *Stats) RecordCheck(failed bool, latency time.Duration) {
	s.checks.Inc()
	if failed {
		s.failures.Inc()
	}
	s.lastLatency.Store(int64(latency))
}

func (s *Stats) RecordTransition() {
	s.transitions.Inc()
}

// Snapshot returns the counters for the status endpoint.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"checks_run":        s.checks.Value(),
		"failures_seen":     s.failures.Value(),
		"transitions_fired": s.transitions.Value(),
		"last_latency":      time.Duration(s.lastLatency.Load()).String(),
	}
}
