// Package config loads and validates the anchorbuilder YAML configuration.
package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
	History   HistoryConfig   `yaml:"history"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Listen          string `yaml:"listen"`
	MaxConnections  int    `yaml:"max_connections,omitempty"` // 0 = unlimited
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// WorkspaceConfig describes the fixed project tree the toolchain builds from.
// Root is resolved against the process working directory when relative; when
// empty it defaults to the solana-workspace sibling of the working directory.
type WorkspaceConfig struct {
	Root         string `yaml:"root,omitempty"`
	SourceDir    string `yaml:"source_dir"`
	ArtifactPath string `yaml:"artifact_path"`
	IDLPath      string `yaml:"idl_path"`
}

// ToolchainConfig is the external build command.
type ToolchainConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env,omitempty"`
	// Timeout bounds a single invocation. Empty means no limit.
	Timeout string `yaml:"timeout,omitempty"`
}

// HistoryConfig controls the sqlite build history.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	Retention     string `yaml:"retention"`
	PruneInterval string `yaml:"prune_interval"`
}

// NotifyConfig controls build notifications over NATS. Disabled when NATSURL is empty.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from configPath. An empty path yields the defaults.
// Environment variables from .env files are loaded first and ${VAR} references
// in the YAML are expanded before parsing.
func Load(configPath string) (*Config, error) {
	switch name, err := loadEnvFile(); {
	case err != nil:
		slog.Warn("Ignoring env file", slog.Any("error", err))
	case name != "":
		slog.Debug("Loaded env file", slog.String("path", name))
	}

	cfg := Default()
	if configPath == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Workspace.Root = "../solana-workspace"
	example.Toolchain.Env = map[string]string{"RUST_LOG": "warn"}
	example.History.Enabled = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.InternalError("failed to encode example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
