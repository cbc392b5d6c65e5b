// Package commands implements the anchorbuilder subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
)

// DefaultConfigFile is used when --config is not given and the file exists.
const DefaultConfigFile = "anchorbuilder.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: ./anchorbuilder.yaml when present)" env:"ANCHORBUILDER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the build server"`
	Build BuildCmd `cmd:"" help:"Build a local directory of program sources once"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// ConfigPath returns the configuration file to load. An empty result means
// no file was given and none exists, so defaults apply.
func (c *CLI) ConfigPath() string {
	if c.Config != "" {
		return c.Config
	}
	if st, err := os.Stat(DefaultConfigFile); err == nil && st.Mode().IsRegular() {
		return DefaultConfigFile
	}
	return ""
}

// LoadConfig loads the configuration and reconfigures logging from it.
func (c *CLI) LoadConfig() (*config.Config, string, error) {
	path := c.ConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr, c.Verbose))
	if path == "" {
		slog.Debug("No configuration file, using defaults")
	}
	return cfg, path, nil
}
