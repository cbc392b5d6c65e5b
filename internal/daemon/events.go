package daemon

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/eventstore"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
	"git.home.luguber.info/inful/anchorbuilder/internal/notify"
)

// EventRouter fans build lifecycle events out to the event store, the
// history projection and the notification publisher. Failures are logged
// and never affect the build.
type EventRouter struct {
	store      eventstore.Store
	projection *eventstore.BuildHistoryProjection
	publisher  notify.Publisher
}

var _ build.EventEmitter = (*EventRouter)(nil)

// NewEventRouter creates a router. A nil store or projection disables history.
func NewEventRouter(store eventstore.Store, projection *eventstore.BuildHistoryProjection, publisher notify.Publisher) *EventRouter {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &EventRouter{store: store, projection: projection, publisher: publisher}
}

// EmitBuildStarted records and announces a build that acquired the lock.
func (e *EventRouter) EmitBuildStarted(ctx context.Context, s build.Started) {
	if e.store != nil {
		ev, err := eventstore.NewBuildStarted(s.BuildID, s.Files, s.LockWait, s.At)
		if err == nil {
			e.record(ctx, ev)
		} else {
			slog.Warn("Failed to create build event", logfields.BuildID(s.BuildID), logfields.Error(err))
		}
	}

	e.publish(ctx, notify.Notification{
		Event:     notify.EventStarted,
		BuildID:   s.BuildID,
		Files:     len(s.Files),
		Timestamp: s.At,
	})
}

// EmitBuildFinished records and announces a completed build.
func (e *EventRouter) EmitBuildFinished(ctx context.Context, s build.Summary) {
	if e.store != nil {
		ev, err := eventstore.NewBuildFinished(s.BuildID, eventstore.BuildFinishedPayload{
			Status:      string(s.Status),
			Outcome:     string(s.Outcome),
			FileCount:   s.Files,
			LogLines:    s.LogLines,
			BinaryBytes: s.BinaryBytes,
			Message:     s.Message,
			DurationMS:  s.Duration.Milliseconds(),
		}, s.At)
		if err == nil {
			e.record(ctx, ev)
		} else {
			slog.Warn("Failed to create build event", logfields.BuildID(s.BuildID), logfields.Error(err))
		}
	}

	e.publish(ctx, notify.Notification{
		Event:       notify.EventFinished,
		BuildID:     s.BuildID,
		Status:      string(s.Status),
		Outcome:     string(s.Outcome),
		Files:       s.Files,
		BinaryBytes: s.BinaryBytes,
		DurationMS:  s.Duration.Milliseconds(),
		Message:     s.Message,
		Timestamp:   s.At,
	})
}

func (e *EventRouter) record(ctx context.Context, ev eventstore.Event) {
	if err := e.store.Append(ctx, ev); err != nil {
		slog.Warn("Failed to persist build event",
			logfields.BuildID(ev.BuildID()),
			slog.String("event_type", ev.Type()),
			logfields.Error(err))
		return
	}
	if e.projection != nil {
		e.projection.Apply(ev)
	}
}

func (e *EventRouter) publish(ctx context.Context, n notify.Notification) {
	if err := e.publisher.Publish(ctx, n); err != nil {
		slog.Warn("Failed to publish build notification", logfields.BuildID(n.BuildID), logfields.Error(err))
	}
}
