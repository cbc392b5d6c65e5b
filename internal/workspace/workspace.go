package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

// Layout is the resolved set of paths that make up the workspace.
// SourceDir, ArtifactPath and IDLPath are relative to Root.
type Layout struct {
	Root         string
	SourceDir    string
	ArtifactPath string
	IDLPath      string
}

// SourceRoot is the directory request files are staged under.
func (l Layout) SourceRoot() string {
	return filepath.Join(l.Root, filepath.FromSlash(l.SourceDir))
}

// ArtifactFile is the absolute path of the build output.
func (l Layout) ArtifactFile() string {
	return filepath.Join(l.Root, filepath.FromSlash(l.ArtifactPath))
}

// IDLFile is the absolute path of the interface description emitted next to the artifact.
func (l Layout) IDLFile() string {
	return filepath.Join(l.Root, filepath.FromSlash(l.IDLPath))
}

// LayoutFromConfig resolves the configured workspace into absolute paths.
func LayoutFromConfig(cfg config.WorkspaceConfig) (Layout, error) {
	root, err := ResolveRoot(cfg.Root)
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		Root:         root,
		SourceDir:    filepath.ToSlash(cfg.SourceDir),
		ArtifactPath: filepath.ToSlash(cfg.ArtifactPath),
		IDLPath:      filepath.ToSlash(cfg.IDLPath),
	}, nil
}

// ResolveRoot turns the configured root into an absolute path. An empty root
// selects the solana-workspace directory next to the working directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		return filepath.Join(filepath.Dir(cwd), config.DefaultWorkspaceName), nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root %q: %w", root, err)
	}
	return abs, nil
}

// Manager bundles the writer and artifact locators for one workspace.
type Manager struct {
	layout   Layout
	writer   *Writer
	artifact *Artifact
	idl      *Artifact
}

// NewManager creates a manager for the given layout.
func NewManager(layout Layout) *Manager {
	return &Manager{
		layout:   layout,
		writer:   NewWriter(layout.SourceRoot()),
		artifact: NewArtifact(layout.ArtifactFile()),
		idl:      NewArtifact(layout.IDLFile()),
	}
}

// Layout returns the resolved workspace paths.
func (m *Manager) Layout() Layout { return m.layout }

// Writer returns the source stager.
func (m *Manager) Writer() *Writer { return m.writer }

// Artifact returns the locator for the compiled binary.
func (m *Manager) Artifact() *Artifact { return m.artifact }

// IDL returns the locator for the generated interface description.
func (m *Manager) IDL() *Artifact { return m.idl }

// Check verifies the workspace root exists. The root is never created here.
func (m *Manager) Check() error {
	info, err := os.Stat(m.layout.Root)
	if err != nil {
		return errors.FileSystemError("workspace root is not accessible").
			WithCause(err).
			WithContext("path", m.layout.Root).
			Build()
	}
	if !info.IsDir() {
		return errors.FileSystemError("workspace root is not a directory").
			WithContext("path", m.layout.Root).
			Build()
	}
	slog.Debug("Workspace verified", logfields.Path(m.layout.Root))
	return nil
}
