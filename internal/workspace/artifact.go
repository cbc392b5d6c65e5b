package workspace

import (
	stdErrors "errors"
	"io/fs"
	"os"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// Artifact locates a single build output file at a fixed path.
type Artifact struct {
	path string
}

// NewArtifact returns a locator for path.
func NewArtifact(path string) *Artifact {
	return &Artifact{path: path}
}

// Path returns the absolute artifact path.
func (a *Artifact) Path() string { return a.path }

// ClearStale removes a previous artifact. A missing file is not an error.
// Other failures are returned for logging; callers do not abort on them.
func (a *Artifact) ClearStale() error {
	err := os.Remove(a.path)
	if err == nil || stdErrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.FileSystemError("failed to remove stale artifact").
		WithCause(err).
		WithContext("path", a.path).
		Build()
}

// Exists reports whether the artifact is present as a regular file.
func (a *Artifact) Exists() bool {
	info, err := os.Stat(a.path)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the artifact bytes. A vanished file yields a not_found error,
// any other failure a filesystem error.
func (a *Artifact) Read() ([]byte, error) {
	data, err := os.ReadFile(a.path)
	if err == nil {
		return data, nil
	}
	if stdErrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NotFoundError("artifact not found").
			WithCause(err).
			WithContext("path", a.path).
			Build()
	}
	return nil, errors.FileSystemError("failed to read artifact").
		WithCause(err).
		WithContext("path", a.path).
		Build()
}
