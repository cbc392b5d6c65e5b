package build

import (
	"context"

	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
	"git.home.luguber.info/inful/anchorbuilder/internal/observability"
	"git.home.luguber.info/inful/anchorbuilder/internal/workspace"
)

// ReadArtifact returns the most recent compiled binary. It waits for any
// running build so a half-written file is never served.
func (c *Coordinator) ReadArtifact(ctx context.Context) ([]byte, error) {
	return c.readLocked(ctx, c.ws.Artifact())
}

// ReadIDL returns the interface description emitted by the last build.
func (c *Coordinator) ReadIDL(ctx context.Context) ([]byte, error) {
	return c.readLocked(ctx, c.ws.IDL())
}

func (c *Coordinator) readLocked(ctx context.Context, a *workspace.Artifact) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := a.Read()
	if err != nil {
		return nil, err
	}
	observability.DebugContext(ctx, "Serving build output", logfields.Path(a.Path()), logfields.ContentLength(int64(len(data))))
	return data, nil
}
