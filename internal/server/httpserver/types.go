package httpserver

import (
	"context"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/server/handlers"
)

// Runtime is what the HTTP surface needs from the build service.
type Runtime interface {
	Build(ctx context.Context, req build.Request) *build.Result
	State() build.State
	ReadArtifact(ctx context.Context) ([]byte, error)
	ReadIDL(ctx context.Context) ([]byte, error)
}

// Options carries optional dependencies. Nil fields disable the matching routes.
type Options struct {
	// History serves GET /builds; Events serves GET /builds/{id}.
	History handlers.HistoryReader
	Events  handlers.EventReader
}
