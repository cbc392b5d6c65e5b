package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/anchorbuilder/internal/eventstore"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

// Pruner removes stored events older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Rebuilder reloads a read model from its store.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

var (
	_ Pruner    = (*eventstore.SQLiteStore)(nil)
	_ Rebuilder = (*eventstore.BuildHistoryProjection)(nil)
)

type noopRebuilder struct{}

func (noopRebuilder) Rebuild(context.Context) error { return nil }

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.DaemonError("failed to create gocron scheduler").WithCause(err).Build()
	}

	return &Scheduler{
		scheduler: s,
		now:       time.Now,
	}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// SchedulePrune runs history retention every interval, dropping builds
// that started more than retention ago and refreshing the projection.
// Returns the job ID for later management.
func (s *Scheduler) SchedulePrune(interval, retention time.Duration, store Pruner, projection Rebuilder) (string, error) {
	if interval <= 0 || store == nil {
		return "", errors.DaemonError("prune job needs a positive interval and a store").
			WithContext("interval", interval.String()).
			Build()
	}
	if projection == nil {
		projection = noopRebuilder{}
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.prune(retention, store, projection) }),
		gocron.WithName("history-prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.DaemonError("failed to create prune job").
			WithCause(err).
			WithContext("interval", interval.String()).
			Build()
	}

	slog.Info("Scheduled history pruning",
		logfields.ScheduleID(job.ID().String()),
		slog.Duration("interval", interval),
		slog.Duration("retention", retention))
	return job.ID().String(), nil
}

// prune is called by gocron on every tick.
func (s *Scheduler) prune(retention time.Duration, store Pruner, projection Rebuilder) {
	ctx := context.Background()
	cutoff := s.now().Add(-retention)

	n, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to prune build history", logfields.Error(err))
		return
	}
	if n == 0 {
		return
	}

	slog.Info("Pruned build history", slog.Int64("events", n), slog.Time("cutoff", cutoff))
	if err := projection.Rebuild(ctx); err != nil {
		slog.Error("Failed to rebuild build history", logfields.Error(err))
	}
}
