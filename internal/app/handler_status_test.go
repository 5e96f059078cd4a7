package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-sh/vigil/internal/adapter/health"
	"github.com/vigil-sh/vigil/internal/adapter/status"
	"github.com/vigil-sh/vigil/internal/config"
	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/internal/logger"
)

type stubProber struct{}

func (stubProber) Probe(ctx context.Context, target domain.Target) domain.CheckOutcome {
	return domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "ok", StatusCode: 200}
}

type stubRemediator struct{}

func (stubRemediator) ApplyTransition(ctx context.Context, event domain.TransitionEvent) error {
	return nil
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	log := logger.NewStyledLogger(slog.New(slog.DiscardHandler), nil)
	registry := status.NewRegistry()

	cfg := config.MonitorConfig{
		CheckInterval: time.Second,
		FailCount:     2,
		HTTPTimeout:   time.Second,
		IPv4:          "10.1.1.1",
		Protocol:      "http",
		TCPPort:       80,
		ConfFail:      "/mnt/flash/failover.conf",
		ConfRecover:   "/mnt/flash/recover.conf",
		Regex:         "ok",
		URLPath:       "/",
	}

	monitor, err := health.NewMonitor(cfg, stubProber{}, stubRemediator{}, registry, log)
	require.NoError(t, err)

	return &Application{
		logger:   log,
		registry: registry,
		monitor:  monitor,
	}
}

func TestStatusHandler(t *testing.T) {
	application := newTestApplication(t)
	application.registry.Set("Status", StatusAdministrativelyUp)
	application.registry.Set("HealthStatus", "UP")

	recorder := httptest.NewRecorder()
	application.statusHandler(recorder, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response struct {
		Daemon  string            `json:"daemon"`
		Version string            `json:"version"`
		Status  map[string]string `json:"status"`
		Stats   map[string]any    `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	assert.Equal(t, "vigil", response.Daemon)
	assert.NotEmpty(t, response.Version)
	assert.Equal(t, StatusAdministrativelyUp, response.Status["Status"])
	assert.Equal(t, "UP", response.Status["HealthStatus"])
	assert.Contains(t, response.Stats, "checks_run")
}
