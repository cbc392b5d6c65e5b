package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/toolchain"
	"git.home.luguber.info/inful/anchorbuilder/internal/workspace"
)

// BuildCmd implements the 'build' command: it stages every file under Dir
// and runs one build through the same coordinator the server uses.
type BuildCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory whose files are staged under the source directory"`
	Out string `short:"o" help:"Also write the compiled binary to this path"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, _, err := root.LoadConfig()
	if err != nil {
		return err
	}
	res, err := RunBuild(context.Background(), cfg, b.Dir, os.Stdout)
	if err != nil {
		return err
	}
	return finishBuild(res, b.Out)
}

// RunBuild collects the files under dir, builds them and writes the JSON
// result to out.
func RunBuild(ctx context.Context, cfg *config.Config, dir string, out io.Writer) (*build.Result, error) {
	files, err := CollectFiles(dir)
	if err != nil {
		return nil, err
	}

	layout, err := workspace.LayoutFromConfig(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	ws := workspace.NewManager(layout)
	if err := ws.Check(); err != nil {
		return nil, err
	}

	coord := build.NewCoordinator(ws, toolchain.NewExecInvoker(toolchain.CommandFromConfig(cfg.Toolchain)))
	res := coord.Build(ctx, build.Request{Files: files})

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode build result").Build()
	}
	return res, nil
}

// finishBuild turns a result without a binary into a non-zero exit.
func finishBuild(res *build.Result, outPath string) error {
	if res.Status == build.StatusError {
		msg := "build failed"
		if res.Message != nil {
			msg = *res.Message
		}
		return errors.BuildError(msg).Build()
	}
	if !res.HasBinary() {
		return errors.BuildError("build produced no binary").Build()
	}
	if outPath == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(*res.Binary)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to decode binary").Build()
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return errors.FileSystemError("failed to write binary").
			WithCause(err).
			WithContext("path", outPath).
			Build()
	}
	return nil
}

// CollectFiles reads every regular file under dir, keyed by slash-separated
// relative path. Hidden directories are skipped.
func CollectFiles(dir string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("failed to read source directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	return files, nil
}
