package workspace

import (
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// Writer stages request files beneath a fixed source directory.
type Writer struct {
	root string
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Root returns the directory files are staged under.
func (w *Writer) Root() string { return w.root }

// Stage writes every entry of files to root/<path>, creating intermediate
// directories and overwriting existing files. Entries are written in sorted
// path order and the slash-separated paths written so far are returned. The
// first failure aborts staging.
func (w *Writer) Stage(files map[string]string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	written := make([]string, 0, len(paths))
	for _, rel := range paths {
		if err := w.stageOne(rel, files[rel]); err != nil {
			return written, err
		}
		written = append(written, filepath.ToSlash(rel))
	}
	return written, nil
}

func (w *Writer) stageOne(rel, content string) error {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return errors.ValidationError("file path escapes the source directory").
			WithContext("path", rel).
			Build()
	}

	full := filepath.Join(w.root, local)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.FileSystemError("failed to create directory").
			WithCause(err).
			WithContext("path", rel).
			Build()
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return errors.FileSystemError("failed to write file").
			WithCause(err).
			WithContext("path", rel).
			Build()
	}
	return nil
}
