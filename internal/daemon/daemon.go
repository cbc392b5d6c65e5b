// Package daemon assembles the long-running anchorbuilder service: the build
// coordinator, the HTTP server, build history, notifications, the retention
// scheduler and the config watcher.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/eventstore"
	derrors "git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
	"git.home.luguber.info/inful/anchorbuilder/internal/metrics"
	"git.home.luguber.info/inful/anchorbuilder/internal/notify"
	"git.home.luguber.info/inful/anchorbuilder/internal/server/httpserver"
	"git.home.luguber.info/inful/anchorbuilder/internal/toolchain"
	"git.home.luguber.info/inful/anchorbuilder/internal/version"
	"git.home.luguber.info/inful/anchorbuilder/internal/workspace"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon is the anchorbuilder service.
type Daemon struct {
	mu         sync.Mutex
	cfgMu      sync.RWMutex
	config     *config.Config
	configPath string
	status     atomic.Value
	startTime  time.Time

	coordinator   *build.Coordinator
	newInvoker    InvokerFactory
	httpServer    *httpserver.Server
	store         eventstore.Store
	projection    *eventstore.BuildHistoryProjection
	publisher     notify.Publisher
	scheduler     *Scheduler
	configWatcher *ConfigWatcher
}

// Option customizes daemon construction.
type Option func(*options)

type options struct {
	newInvoker InvokerFactory
	publisher  notify.Publisher
}

// InvokerFactory builds the toolchain invoker for a command. It runs at
// construction and again whenever a reload changes the toolchain section.
type InvokerFactory func(toolchain.Command) toolchain.Invoker

func execInvoker(cmd toolchain.Command) toolchain.Invoker {
	return toolchain.NewExecInvoker(cmd)
}

// WithInvoker pins the toolchain invoker; reloads keep using inv.
func WithInvoker(inv toolchain.Invoker) Option {
	return WithInvokerFactory(func(toolchain.Command) toolchain.Invoker { return inv })
}

// WithInvokerFactory replaces the exec-based invoker construction.
func WithInvokerFactory(f InvokerFactory) Option {
	return func(o *options) { o.newInvoker = f }
}

// WithPublisher replaces the publisher built from the notify section.
func WithPublisher(p notify.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// New wires every component from cfg. configPath enables hot reload when non-empty.
func New(cfg *config.Config, configPath string, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, derrors.ConfigError("configuration is required").Build()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	layout, err := workspace.LayoutFromConfig(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	ws := workspace.NewManager(layout)
	if err := ws.Check(); err != nil {
		// builds fail with a staging error until the workspace appears
		slog.Warn("Workspace is not ready", logfields.Path(layout.Root), logfields.Error(err))
	}

	if o.newInvoker == nil {
		o.newInvoker = execInvoker
	}

	d := &Daemon{
		config:      cfg,
		configPath:  configPath,
		newInvoker:  o.newInvoker,
		coordinator: build.NewCoordinator(ws, o.newInvoker(toolchain.CommandFromConfig(cfg.Toolchain))),
	}
	d.status.Store(StatusStopped)

	if o.publisher == nil {
		o.publisher, err = notify.New(cfg.Notify)
		if err != nil {
			return nil, err
		}
	}
	d.publisher = o.publisher

	var serverOpts httpserver.Options
	if cfg.History.Enabled {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			_ = d.publisher.Close()
			return nil, err
		}
		d.store = store
		d.projection = eventstore.NewBuildHistoryProjection(store, 0)
		serverOpts.History = d.projection
		serverOpts.Events = store

		d.scheduler, err = NewScheduler()
		if err != nil {
			d.closeResources()
			return nil, err
		}
		if _, err := d.scheduler.SchedulePrune(cfg.History.PruneIntervalDuration(), cfg.History.RetentionDuration(), store, d.projection); err != nil {
			d.closeResources()
			return nil, err
		}
	}

	d.coordinator.WithEventEmitter(NewEventRouter(d.store, d.projection, d.publisher))
	d.httpServer = httpserver.New(cfg, d.coordinator, serverOpts)

	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
		recorder := metrics.NewPrometheusRecorder(reg)
		d.coordinator.WithRecorder(recorder)
		d.httpServer.WithMetrics(recorder, metrics.HTTPHandler(reg))
	}

	if configPath != "" {
		cw, err := NewConfigWatcher(configPath, d)
		if err != nil {
			d.closeResources()
			return nil, err
		}
		d.configWatcher = cw
	}

	return d, nil
}

// Start starts every component. It returns once the listener is bound.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetStatus() != StatusStopped {
		return derrors.DaemonError(fmt.Sprintf("daemon is not in stopped state: %s", d.GetStatus())).Build()
	}

	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	slog.Info("Starting anchorbuilder daemon", slog.String("version", version.Version))

	if d.projection != nil {
		if err := d.projection.Rebuild(ctx); err != nil {
			slog.Warn("Failed to rebuild build history", logfields.Error(err))
		}
	}

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if d.scheduler != nil {
		d.scheduler.Start(ctx)
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)

	cfg := d.GetConfig()
	slog.Info("anchorbuilder daemon started",
		logfields.Addr(d.httpServer.Addr()),
		logfields.Path(d.coordinator.Workspace().Layout().Root),
		logfields.Command(toolchain.CommandFromConfig(cfg.Toolchain).String()),
		slog.Bool("history", d.store != nil),
		slog.Bool("notify", cfg.Notify.Enabled()),
		slog.Bool("metrics", cfg.Metrics.Enabled))
	return nil
}

// Stop shuts down in reverse start order. In-flight builds finish unless ctx expires first.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetStatus() != StatusRunning {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping anchorbuilder daemon")

	var errs []error
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.httpServer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.closeResources(); err != nil {
		errs = append(errs, err)
	}

	d.status.Store(StatusStopped)
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	slog.Info("anchorbuilder daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

func (d *Daemon) closeResources() error {
	var errs []error
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notify close: %w", err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event store close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	return d.status.Load().(Status)
}

// GetStartTime returns when the daemon was last started.
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}

// Addr returns the bound HTTP address.
func (d *Daemon) Addr() string {
	return d.httpServer.Addr()
}

// Coordinator exposes the build coordinator.
func (d *Daemon) Coordinator() *build.Coordinator {
	return d.coordinator
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.config
}

// ReloadConfig applies the toolchain section of newConfig between builds.
// Other sections need a restart, so the active configuration keeps them.
func (d *Daemon) ReloadConfig(_ context.Context, newConfig *config.Config) error {
	if newConfig == nil {
		return derrors.ConfigError("configuration is required").Build()
	}

	d.cfgMu.Lock()
	old := d.config
	live := *old
	live.Toolchain = newConfig.Toolchain
	d.config = &live
	d.cfgMu.Unlock()

	if !old.Toolchain.Equal(newConfig.Toolchain) {
		cmd := toolchain.CommandFromConfig(newConfig.Toolchain)
		d.coordinator.SetInvoker(d.newInvoker(cmd))
		slog.Info("Toolchain reloaded", logfields.Command(cmd.String()))
	}

	if old.Server != newConfig.Server {
		slog.Warn("Server settings changed; restart required to apply")
	}
	if old.Workspace != newConfig.Workspace {
		slog.Warn("Workspace settings changed; restart required to apply")
	}
	if old.History != newConfig.History || old.Notify != newConfig.Notify || old.Metrics != newConfig.Metrics {
		slog.Warn("History, notify or metrics settings changed; restart required to apply")
	}
	return nil
}
