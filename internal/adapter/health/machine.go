package health

import (
	"time"

	"github.com/vigil-sh/vigil/internal/core/domain"
)

/*
Health transition logic:

UP + FAIL:  increment the consecutive-failure counter. Reaching the
            threshold flips to DOWN, resets the counter and fires a
            down-transition. Below the threshold nothing fires.
UP + PASS:  counter resets, nothing fires.
DOWN + PASS: first PASS flips back to UP, resets the counter and fires an
            up-transition.
DOWN + FAIL: no-op; remediation never repeats while continuously down.

A threshold of 1 means a single FAIL transitions immediately. The machine
only computes state; remediation runs elsewhere so a failed remediation can
never corrupt the bookkeeping.
*/

// StateMachine owns the UP/DOWN state for the single monitored target. Not
// goroutine safe; it is confined to the monitor goroutine.
type StateMachine struct {
	state     domain.HealthState
	threshold int
}

func NewStateMachine(threshold int) *StateMachine {
	return &StateMachine{
		state:     domain.NewHealthState(),
		threshold: threshold,
	}
}

// Apply consumes one verdict and returns the transition it caused, if any.
func (m *StateMachine) Apply(verdict domain.ProbeVerdict) domain.TransitionEvent {
	m.state.LastVerdict = verdict
	m.state.LastChecked = time.Now()

	switch m.state.Status {
	case domain.StatusUp:
		if verdict == domain.VerdictPass {
			m.state.ConsecutiveFailures = 0
			return domain.TransitionNone
		}
		m.state.ConsecutiveFailures++
		if m.state.ConsecutiveFailures >= m.threshold {
			m.state.Status = domain.StatusDown
			m.state.ConsecutiveFailures = 0
			return domain.TransitionDown
		}
		return domain.TransitionNone

	case domain.StatusDown:
		if verdict == domain.VerdictPass {
			m.state.Status = domain.StatusUp
			m.state.ConsecutiveFailures = 0
			return domain.TransitionUp
		}
		return domain.TransitionNone
	}

	return domain.TransitionNone
}

// State returns a copy of the current health state.
func (m *StateMachine) State() domain.HealthState {
	return m.state
}

// Reset reinitialises the machine to UP with a clean counter; used when the
// operator pushes a new configuration.
func (m *StateMachine) Reset(threshold int) {
	m.state = domain.NewHealthState()
	m.threshold = threshold
}
