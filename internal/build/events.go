package build

import "context"

// EventEmitter receives build lifecycle notifications. Calls happen while the
// workspace lock is held, so implementations must not block on the network.
type EventEmitter interface {
	EmitBuildStarted(ctx context.Context, ev Started)
	EmitBuildFinished(ctx context.Context, ev Summary)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

func (NoopEmitter) EmitBuildStarted(context.Context, Started)  {}
func (NoopEmitter) EmitBuildFinished(context.Context, Summary) {}
