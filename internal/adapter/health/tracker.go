package health

import (
	"time"

	"github.com/vigil-sh/vigil/internal/core/domain"
)

const (
	repeatedFailureLogEvery   = 10
	repeatedFailureLogTimeout = 2 * time.Minute
)

// transitionTracker keeps repeated-failure logging quiet: transitions always
// log, a continuously failing target logs every Nth miss or after a couple of
// minutes of silence. Confined to the monitor goroutine.
type transitionTracker struct {
	lastStatus domain.HealthStatus
	lastLog    time.Time
	errorCount int
}

func newTransitionTracker() *transitionTracker {
	return &transitionTracker{
		lastStatus: domain.StatusUnknown,
	}
}

// shouldLog reports whether this cycle deserves a log line, and how many
// consecutive misses have accumulated.
func (t *transitionTracker) shouldLog(status domain.HealthStatus, isError bool) (bool, int) {
	if status != t.lastStatus {
		t.lastStatus = status
		t.errorCount = 0
		t.lastLog = time.Now()
		return true, 0
	}

	if isError {
		t.errorCount++
		if t.errorCount%repeatedFailureLogEvery == 0 || time.Since(t.lastLog) > repeatedFailureLogTimeout {
			t.lastLog = time.Now()
			return true, t.errorCount
		}
	}

	return false, t.errorCount
}

// reset forgets history, used on reconfiguration.
func (t *transitionTracker) reset() {
	t.lastStatus = domain.StatusUnknown
	t.errorCount = 0
	t.lastLog = time.Time{}
}
