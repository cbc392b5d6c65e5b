package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

const defaultReloadDebounce = 2 * time.Second

// ConfigReloader applies a freshly loaded configuration.
type ConfigReloader interface {
	ReloadConfig(ctx context.Context, cfg *config.Config) error
}

// ConfigWatcher reloads the configuration file when it changes on disk.
// Bursts of events within the debounce window cause a single reload.
type ConfigWatcher struct {
	path     string
	target   ConfigReloader
	fsw      *fsnotify.Watcher
	debounce time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewConfigWatcher(path string, target ConfigReloader) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.ConfigError("failed to resolve config path").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.DaemonError("failed to create file watcher").WithCause(err).Build()
	}
	return &ConfigWatcher{
		path:     abs,
		target:   target,
		fsw:      fsw,
		debounce: defaultReloadDebounce,
		stop:     make(chan struct{}),
	}, nil
}

// Start watches the directory holding the config file; editors that save by
// rename would otherwise detach a watch on the file itself.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(cw.path)
	if err := cw.fsw.Add(dir); err != nil {
		return errors.FileSystemError("failed to watch config directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	slog.Info("Watching configuration", logfields.Path(cw.path))
	go cw.run(ctx)
	return nil
}

func (cw *ConfigWatcher) Stop(_ context.Context) error {
	cw.stopOnce.Do(func() {
		close(cw.stop)
		if err := cw.fsw.Close(); err != nil {
			slog.Warn("Error closing config watcher", logfields.Error(err))
		}
	})
	return nil
}

func (cw *ConfigWatcher) run(ctx context.Context) {
	name := filepath.Base(cw.path)
	timer := time.NewTimer(cw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stop:
			return

		case ev, ok := <-cw.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				slog.Warn("Config file removed; keeping current configuration", logfields.File(ev.Name))
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				slog.Debug("Config file changed", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
				timer.Reset(cw.debounce)
			}

		case err, ok := <-cw.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", logfields.Error(err))

		case <-timer.C:
			if err := cw.reload(ctx); err != nil {
				slog.Error("Configuration reload failed", logfields.Error(err))
			}
		}
	}
}

// reload applies the file's current contents. An invalid file leaves the
// running configuration untouched.
func (cw *ConfigWatcher) reload(ctx context.Context) error {
	cfg, err := config.Load(cw.path)
	if err != nil {
		return err
	}
	if err := cw.target.ReloadConfig(ctx, cfg); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to apply new configuration").Build()
	}
	slog.Info("Configuration reloaded", logfields.Path(cw.path))
	return nil
}
