package commands

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"lib.rs":               "pub mod state;",
		"state/mod.rs":         "pub struct Vault;",
		".git/HEAD":            "ref: refs/heads/main",
		"instructions/init.rs": "",
	})

	files, err := CollectFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"lib.rs":               "pub mod state;",
		"state/mod.rs":         "pub struct Vault;",
		"instructions/init.rs": "",
	}, files)
}

func TestCollectFiles_MissingDir(t *testing.T) {
	_, err := CollectFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func buildConfig(t *testing.T, script string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = t.TempDir()
	cfg.Toolchain.Command = "/bin/sh"
	cfg.Toolchain.Args = []string{"-c", script}
	return cfg
}

func TestRunBuild_WritesBinary(t *testing.T) {
	cfg := buildConfig(t, "mkdir -p target/deploy && printf 'ELF' > target/deploy/solana_workspace.so")
	src := t.TempDir()
	writeTree(t, src, map[string]string{"lib.rs": "use anchor_lang::prelude::*;"})

	var out bytes.Buffer
	res, err := RunBuild(t.Context(), cfg, src, &out)
	require.NoError(t, err)
	assert.Equal(t, build.StatusSuccess, res.Status)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ELF")), decoded["binary"])

	staged, err := os.ReadFile(filepath.Join(cfg.Workspace.Root, filepath.FromSlash(cfg.Workspace.SourceDir), "lib.rs"))
	require.NoError(t, err)
	assert.Equal(t, "use anchor_lang::prelude::*;", string(staged))

	target := filepath.Join(t.TempDir(), "program.so")
	require.NoError(t, finishBuild(res, target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "ELF", string(data))
}

func TestRunBuild_CompilerFailure(t *testing.T) {
	cfg := buildConfig(t, "echo 'error[E0425]: cannot find value' >&2; exit 101")
	src := t.TempDir()
	writeTree(t, src, map[string]string{"lib.rs": "broken"})

	res, err := RunBuild(t.Context(), cfg, src, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, build.StatusSuccess, res.Status)
	assert.Equal(t, build.LogCommandFailed, res.Logs[len(res.Logs)-1])

	err = finishBuild(res, "")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
}

func TestRunBuild_MissingWorkspace(t *testing.T) {
	cfg := buildConfig(t, "true")
	cfg.Workspace.Root = filepath.Join(t.TempDir(), "absent")

	_, err := RunBuild(t.Context(), cfg, t.TempDir(), &bytes.Buffer{})
	require.Error(t, err)
}

func TestFinishBuild_ErrorStatus(t *testing.T) {
	msg := "failed to write file: permission denied"
	err := finishBuild(&build.Result{Status: build.StatusError, Message: &msg}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msg)
}

func TestConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.Equal(t, "custom.yaml", (&CLI{Config: "custom.yaml"}).ConfigPath())
	assert.Empty(t, (&CLI{}).ConfigPath())

	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte("{}\n"), 0o600))
	assert.Equal(t, DefaultConfigFile, (&CLI{}).ConfigPath())
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, RunInit(path, false))
	require.Error(t, RunInit(path, false))
	require.NoError(t, RunInit(path, true))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.History.Enabled)
}

func TestRunInitPrintsNextStep(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, runInit(&out, path, false))
	assert.Contains(t, out.String(), "--config "+path+" serve")
}
