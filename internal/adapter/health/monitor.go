package health

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/vigil-sh/vigil/internal/config"
	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/internal/core/ports"
	"github.com/vigil-sh/vigil/internal/logger"
)

// Remediator applies the configured command list for a transition.
type Remediator interface {
	ApplyTransition(ctx context.Context, event domain.TransitionEvent) error
}

// Monitor drives the probe/evaluate/transition/remediate loop for the single
// monitored target. Exactly one cycle is in flight at a time; HealthState is
// confined to the Run goroutine. Reconfigurations are queued and applied at
// the start of the next cycle, never mid-probe.
type Monitor struct {
	prober     ports.Prober
	remediator Remediator
	reporter   ports.StatusReporter
	stats      *Stats
	machine    *StateMachine
	tracker    *transitionTracker
	logger     *logger.StyledLogger

	pattern *regexp.Regexp
	target  domain.Target
	cfg     config.MonitorConfig

	pendingMu sync.Mutex
	pending   *config.MonitorConfig
}

func NewMonitor(
	cfg config.MonitorConfig,
	prober ports.Prober,
	remediator Remediator,
	reporter ports.StatusReporter,
	log *logger.StyledLogger,
) (*Monitor, error) {
	pattern, err := cfg.CompilePattern()
	if err != nil {
		return nil, err
	}

	return &Monitor{
		prober:     prober,
		remediator: remediator,
		reporter:   reporter,
		stats:      NewStats(),
		machine:    NewStateMachine(cfg.FailCount),
		tracker:    newTransitionTracker(),
		logger:     log,
		pattern:    pattern,
		target:     cfg.Target(),
		cfg:        cfg,
	}, nil
}

// Stats exposes the probe counters for the status surface.
func (m *Monitor) Stats() *Stats {
	return m.stats
}

// UpdateConfig queues a validated configuration snapshot. The monitor picks
// it up at the start of the next cycle and resets its health bookkeeping,
// exactly as a restart of the daemon would.
func (m *Monitor) UpdateConfig(cfg config.MonitorConfig) {
	m.pendingMu.Lock()
	m.pending = &cfg
	m.pendingMu.Unlock()
}

// Run executes the monitor loop until the context is cancelled. The first
// probe fires immediately; afterwards cycles are spaced by check_interval.
// Cancellation stops the loop after the current cycle completes.
func (m *Monitor) Run(ctx context.Context) error {
	m.publishOptions()
	m.reporter.Set("HealthStatus", domain.StatusUnknown.String())
	m.logger.InfoWithTarget("Monitoring", m.target.String(),
		"interval", m.cfg.CheckInterval,
		"fail_count", m.cfg.FailCount)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Monitor stopped")
			return nil
		case <-timer.C:
			interval := m.applyPending()
			m.runCycle(ctx)
			timer.Reset(interval)
		}
	}
}

// runCycle performs one probe/evaluate/transition/remediate pass.
func (m *Monitor) runCycle(ctx context.Context) {
	outcome := m.prober.Probe(ctx, m.target)
	verdict := Evaluate(outcome, m.pattern)
	failed := verdict == domain.VerdictFail

	m.logger.Debug("Probe completed",
		"phase", "probe",
		"outcome", outcome.Kind.String(),
		"status_code", outcome.StatusCode,
		"verdict", verdict.String(),
		"latency", outcome.Latency)

	event := m.machine.Apply(verdict)
	state := m.machine.State()

	m.stats.RecordCheck(failed, outcome.Latency)
	m.reporter.Set("HealthStatus", state.Status.String())

	if shouldLog, misses := m.tracker.shouldLog(state.Status, failed); shouldLog {
		if misses > 0 {
			m.logger.WarnWithTarget("Health checks still failing for", m.target.String(),
				"phase", "probe",
				"consecutive_misses", misses,
				"reason", outcome.Kind.String())
		} else {
			m.logHealth(outcome, state)
		}
	}

	if event == domain.TransitionNone {
		return
	}

	m.stats.RecordTransition()
	switch event {
	case domain.TransitionDown:
		m.logger.WarnWithTarget("HTTP host is down, changing configuration:", m.target.String())
	case domain.TransitionUp:
		m.logger.InfoWithTarget("HTTP host back up, changing configuration:", m.target.String())
	}

	if err := m.remediator.ApplyTransition(ctx, event); err != nil {
		// The state already reflects the new status; remediation is not
		// retried and never rolls the transition back.
		m.logger.ErrorWithTarget("Remediation failed for", m.target.String(),
			"phase", "remediate",
			"transition", event.String(),
			"error", err)
	}
}

func (m *Monitor) logHealth(outcome domain.CheckOutcome, state domain.HealthState) {
	switch outcome.Kind {
	case domain.OutcomeTimeout:
		m.logger.WarnWithTarget("Connection timed out probing", m.target.String(),
			"phase", "probe",
			"timeout", m.target.Timeout)
	case domain.OutcomeConnectionError:
		m.logger.WarnWithTarget("Connection failed probing", m.target.String(),
			"phase", "probe",
			"error", outcome.Err)
	default:
		m.logger.InfoHealthStatus("Health check:", m.target.String(), state.Status,
			"latency", outcome.Latency)
	}
}

// applyPending swaps in a queued configuration snapshot, resetting health
// state the way a daemon restart would, and returns the active interval.
func (m *Monitor) applyPending() time.Duration {
	m.pendingMu.Lock()
	pending := m.pending
	m.pending = nil
	m.pendingMu.Unlock()

	if pending == nil {
		return m.cfg.CheckInterval
	}

	pattern, err := pending.CompilePattern()
	if err != nil {
		// Snapshots are validated before queueing; keep the old config if a
		// bad one slips through anyway.
		m.logger.Error("Rejecting reconfiguration", "phase", "config", "error", err)
		return m.cfg.CheckInterval
	}

	m.cfg = *pending
	m.pattern = pattern
	m.target = pending.Target()
	m.machine.Reset(pending.FailCount)
	m.tracker.reset()

	m.publishOptions()
	m.reporter.Set("HealthStatus", domain.StatusUnknown.String())
	m.logger.InfoWithTarget("Configuration applied, monitoring", m.target.String(),
		"interval", m.cfg.CheckInterval,
		"fail_count", m.cfg.FailCount)

	return m.cfg.CheckInterval
}

// publishOptions mirrors the active option snapshot onto the status surface,
// clearing optional keys that are no longer set.
func (m *Monitor) publishOptions() {
	options := m.cfg.Options()
	for key, value := range options {
		m.reporter.Set(key, value)
	}
	for _, optional := range []string{"USERNAME", "PASSWORD", "VRF"} {
		if _, ok := options[optional]; !ok {
			m.reporter.Delete(optional)
		}
	}
}
