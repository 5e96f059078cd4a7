package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-sh/vigil/internal/config"
	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/internal/logger"
)

func newTestLogger() *logger.StyledLogger {
	return logger.NewStyledLogger(slog.New(slog.DiscardHandler), nil)
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		CheckInterval: 5 * time.Millisecond,
		FailCount:     2,
		HTTPTimeout:   time.Second,
		IPv4:          "10.1.1.1",
		Protocol:      "http",
		TCPPort:       80,
		ConfFail:      "/mnt/flash/failover.conf",
		ConfRecover:   "/mnt/flash/recover.conf",
		Regex:         "healthy",
		URLPath:       "/",
	}
}

func passOutcome() domain.CheckOutcome {
	return domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "healthy", StatusCode: 200}
}

func failOutcome() domain.CheckOutcome {
	return domain.CheckOutcome{Kind: domain.OutcomeConnectionError, Err: errors.New("connection refused")}
}

// scriptedProber replays a fixed outcome sequence, repeating the last entry.
type scriptedProber struct {
	mu       sync.Mutex
	outcomes []domain.CheckOutcome
	index    int
}

func (p *scriptedProber) Probe(ctx context.Context, target domain.Target) domain.CheckOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	outcome := p.outcomes[p.index]
	if p.index < len(p.outcomes)-1 {
		p.index++
	}
	return outcome
}

type recordingRemediator struct {
	mu     sync.Mutex
	events []domain.TransitionEvent
	err    error
}

func (r *recordingRemediator) ApplyTransition(ctx context.Context, event domain.TransitionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingRemediator) recorded() []domain.TransitionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TransitionEvent(nil), r.events...)
}

type mapReporter struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapReporter() *mapReporter {
	return &mapReporter{entries: make(map[string]string)}
}

func (r *mapReporter) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

func (r *mapReporter) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

func (r *mapReporter) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[string]string, len(r.entries))
	for key, value := range r.entries {
		snapshot[key] = value
	}
	return snapshot
}

func (r *mapReporter) get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.entries[key]
	return value, ok
}

func newTestMonitor(t *testing.T, cfg config.MonitorConfig, prober *scriptedProber, remediator *recordingRemediator) (*Monitor, *mapReporter) {
	t.Helper()

	reporter := newMapReporter()
	monitor, err := NewMonitor(cfg, prober, remediator, reporter, newTestLogger())
	require.NoError(t, err)
	return monitor, reporter
}

func TestMonitor_DownTransitionAfterThreshold(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{failOutcome()}}
	remediator := &recordingRemediator{}
	monitor, reporter := newTestMonitor(t, testMonitorConfig(), prober, remediator)

	ctx := context.Background()
	monitor.runCycle(ctx)
	assert.Empty(t, remediator.recorded(), "one failure is below the threshold")

	monitor.runCycle(ctx)
	assert.Equal(t, []domain.TransitionEvent{domain.TransitionDown}, remediator.recorded())

	status, ok := reporter.get("HealthStatus")
	require.True(t, ok)
	assert.Equal(t, "DOWN", status)
}

func TestMonitor_RecoveryFiresUpTransition(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{
		failOutcome(), failOutcome(), passOutcome(),
	}}
	remediator := &recordingRemediator{}
	monitor, reporter := newTestMonitor(t, testMonitorConfig(), prober, remediator)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		monitor.runCycle(ctx)
	}

	assert.Equal(t, []domain.TransitionEvent{domain.TransitionDown, domain.TransitionUp}, remediator.recorded())

	status, _ := reporter.get("HealthStatus")
	assert.Equal(t, "UP", status)
}

func TestMonitor_RemediationFailureDoesNotRevertState(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{
		failOutcome(), failOutcome(), failOutcome(), passOutcome(),
	}}
	remediator := &recordingRemediator{err: errors.New("command rejected")}
	monitor, reporter := newTestMonitor(t, testMonitorConfig(), prober, remediator)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		monitor.runCycle(ctx)
	}

	// The down-transition fired once despite the failed remediation, and the
	// continuing failure did not re-fire it.
	assert.Equal(t, []domain.TransitionEvent{domain.TransitionDown}, remediator.recorded())
	status, _ := reporter.get("HealthStatus")
	assert.Equal(t, "DOWN", status)

	// Recovery still fires normally afterwards.
	monitor.runCycle(ctx)
	assert.Equal(t, []domain.TransitionEvent{domain.TransitionDown, domain.TransitionUp}, remediator.recorded())
}

func TestMonitor_StatsCountChecksAndTransitions(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{
		failOutcome(), failOutcome(), passOutcome(),
	}}
	remediator := &recordingRemediator{}
	monitor, _ := newTestMonitor(t, testMonitorConfig(), prober, remediator)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		monitor.runCycle(ctx)
	}

	snapshot := monitor.Stats().Snapshot()
	assert.Equal(t, int64(3), snapshot["checks_run"])
	assert.Equal(t, int64(2), snapshot["failures_seen"])
	assert.Equal(t, int64(2), snapshot["transitions_fired"])
}

func TestMonitor_UpdateConfigAppliesAtCycleStart(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{failOutcome()}}
	remediator := &recordingRemediator{}
	monitor, reporter := newTestMonitor(t, testMonitorConfig(), prober, remediator)

	monitor.runCycle(context.Background())
	assert.Equal(t, 1, monitor.machine.State().ConsecutiveFailures)

	newCfg := testMonitorConfig()
	newCfg.FailCount = 3
	newCfg.IPv4 = "10.2.2.2"
	newCfg.CheckInterval = 7 * time.Millisecond
	monitor.UpdateConfig(newCfg)

	interval := monitor.applyPending()
	assert.Equal(t, 7*time.Millisecond, interval)

	// Health bookkeeping resets exactly as a restart would.
	assert.Equal(t, domain.StatusUp, monitor.machine.State().Status)
	assert.Equal(t, 0, monitor.machine.State().ConsecutiveFailures)
	assert.Equal(t, "10.2.2.2", monitor.target.Address)

	status, _ := reporter.get("HealthStatus")
	assert.Equal(t, "Unknown", status)
	failCount, _ := reporter.get("FAILCOUNT")
	assert.Equal(t, "3", failCount)
}

func TestMonitor_ApplyPendingWithoutUpdateKeepsInterval(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{passOutcome()}}
	monitor, _ := newTestMonitor(t, testMonitorConfig(), prober, &recordingRemediator{})

	assert.Equal(t, 5*time.Millisecond, monitor.applyPending())
}

func TestMonitor_PublishOptionsClearsDroppedOptionals(t *testing.T) {
	cfg := testMonitorConfig()
	cfg.Username = "admin"
	cfg.Password = "4me2know"
	cfg.VRF = "management"

	prober := &scriptedProber{outcomes: []domain.CheckOutcome{passOutcome()}}
	monitor, reporter := newTestMonitor(t, cfg, prober, &recordingRemediator{})

	monitor.publishOptions()
	user, ok := reporter.get("USERNAME")
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	password, _ := reporter.get("PASSWORD")
	assert.Equal(t, "********", password)

	plain := testMonitorConfig()
	monitor.UpdateConfig(plain)
	monitor.applyPending()

	_, hasUser := reporter.get("USERNAME")
	assert.False(t, hasUser)
	_, hasPassword := reporter.get("PASSWORD")
	assert.False(t, hasPassword)
	_, hasVRF := reporter.get("VRF")
	assert.False(t, hasVRF)
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	prober := &scriptedProber{outcomes: []domain.CheckOutcome{passOutcome()}}
	monitor, _ := newTestMonitor(t, testMonitorConfig(), prober, &recordingRemediator{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitor.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		checks, _ := monitor.Stats().Snapshot()["checks_run"].(int64)
		return checks >= 2
	}, 2*time.Second, time.Millisecond, "monitor should keep probing on its interval")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}
