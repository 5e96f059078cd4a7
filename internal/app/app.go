package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vigil-sh/vigil/internal/adapter/health"
	"github.com/vigil-sh/vigil/internal/adapter/probe"
	"github.com/vigil-sh/vigil/internal/adapter/remediate"
	"github.com/vigil-sh/vigil/internal/adapter/status"
	"github.com/vigil-sh/vigil/internal/config"
	"github.com/vigil-sh/vigil/internal/logger"
)

const (
	StatusAdministrativelyUp   = "Administratively Up"
	StatusAdministrativelyDown = "Administratively Down"
)

// Application wires the monitor loop, the snippet watcher and the read-only
// status endpoint together.
type Application struct {
	configMu sync.RWMutex
	config   *config.Config
	server   *http.Server
	logger   *logger.StyledLogger
	monitor  *health.Monitor
	snippets *remediate.SnippetStore
	registry *status.Registry
	group    *errgroup.Group
}

// New loads and validates configuration, constructs the collaborators and
// registers the hot-reload callback. Configuration errors here are fatal:
// the daemon never starts probing with an invalid configuration.
func New(log *logger.StyledLogger) (*Application, error) {
	app := &Application{
		logger:   log,
		registry: status.NewRegistry(),
	}

	cfg, err := config.Load(app.reloadConfig)
	if err != nil {
		return nil, err
	}
	app.setConfig(cfg)

	snippets, err := remediate.NewSnippetStore(cfg.Monitor.ConfFail, cfg.Monitor.ConfRecover, log)
	if err != nil {
		return nil, err
	}
	app.snippets = snippets

	sink := remediate.NewEAPISink(cfg.Sink.Socket, log)
	remediator := remediate.NewCommandRemediator(sink, snippets, log)
	prober := probe.NewHTTPProber(log)

	monitor, err := health.NewMonitor(cfg.Monitor, prober, remediator, app.registry, log)
	if err != nil {
		return nil, err
	}
	app.monitor = monitor

	if cfg.Server.Enabled {
		app.server = &http.Server{
			Addr:         cfg.Server.GetAddress(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	return app, nil
}

// reloadConfig runs on every config file change. A snapshot that fails
// validation is rejected and the running configuration stays active; a valid
// one is queued for the monitor's next cycle.
func (a *Application) reloadConfig() {
	newCfg, err := config.Reload()
	if err != nil {
		a.logger.Error("Rejecting configuration reload", "phase", "config", "error", err)
		return
	}

	if err := a.snippets.Reconfigure(newCfg.Monitor.ConfFail, newCfg.Monitor.ConfRecover); err != nil {
		a.logger.Error("Rejecting configuration reload", "phase", "config", "error", err)
		return
	}

	a.setConfig(newCfg)
	a.monitor.UpdateConfig(newCfg.Monitor)
	a.logger.Info("Configuration reload queued, applies at next cycle")
}

// Start launches the monitor loop, the snippet watcher and the status
// endpoint. Non-blocking; the caller owns the context and waits on it.
func (a *Application) Start(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)
	a.group = group

	a.registry.Set("Status", StatusAdministrativelyUp)

	group.Go(func() error {
		return a.monitor.Run(gctx)
	})

	group.Go(func() error {
		return a.snippets.Watch(gctx)
	})

	if a.server != nil {
		router := http.NewServeMux()
		router.HandleFunc("/status", a.statusHandler)
		a.server.Handler = router

		group.Go(func() error {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.getConfig().Server.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})

		a.logger.Info("Status endpoint enabled", "bind", a.server.Addr, "path", "/status")
	}

	a.logger.Info("Vigil started")
	return nil
}

// Stop marks the daemon administratively down and waits for the goroutines
// started by Start to finish their current cycle.
func (a *Application) Stop(ctx context.Context) error {
	a.registry.Set("Status", StatusAdministrativelyDown)
	a.registry.Set("HealthStatus", "Unknown")

	if a.group == nil {
		return nil
	}
	return a.group.Wait()
}

func (a *Application) setConfig(cfg *config.Config) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.config = cfg
}

func (a *Application) getConfig() *config.Config {
	a.configMu.RLock()
	defer a.configMu.RUnlock()
	return a.config
}
