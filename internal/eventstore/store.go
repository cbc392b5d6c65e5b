// Package eventstore persists build lifecycle events and projects them into
// a queryable build history.
package eventstore

import (
	"context"
	"time"
)

// Store is an append-only log of build events.
type Store interface {
	Append(ctx context.Context, ev Event) error

	// GetByBuildID returns the events of one build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange returns events recorded in [start, end] in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Prune removes whole builds that started before the cutoff and reports
	// how many events went with them.
	Prune(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
