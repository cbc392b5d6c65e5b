package config

// Default values mirror the layout of an Anchor workspace.
const (
	DefaultListen          = ":3001"
	DefaultMaxBodyBytes    = 32 << 20
	DefaultShutdownTimeout = "30s"
	DefaultWorkspaceName   = "solana-workspace"
	DefaultSourceDir       = "programs/solana_workspace/src"
	DefaultArtifactPath    = "target/deploy/solana_workspace.so"
	DefaultIDLPath         = "target/idl/solana_workspace.json"
	DefaultCommand         = "anchor"
	DefaultHistoryPath     = "anchorbuilder.db"
	DefaultRetention       = "168h"
	DefaultPruneInterval   = "1h"
	DefaultSubject         = "anchorbuilder.builds"
	DefaultMetricsPath     = "/metrics"
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListen,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Workspace: WorkspaceConfig{
			SourceDir:    DefaultSourceDir,
			ArtifactPath: DefaultArtifactPath,
			IDLPath:      DefaultIDLPath,
		},
		Toolchain: ToolchainConfig{
			Command: DefaultCommand,
			Args:    []string{"build"},
		},
		History: HistoryConfig{
			Path:          DefaultHistoryPath,
			Retention:     DefaultRetention,
			PruneInterval: DefaultPruneInterval,
		},
		Notify: NotifyConfig{
			Subject: DefaultSubject,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Logging: LoggingConfig{
			Level:  string(LogLevelInfo),
			Format: string(LogFormatText),
		},
	}
}

// applyDefaults fills fields explicitly blanked in the YAML.
func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Workspace.SourceDir == "" {
		c.Workspace.SourceDir = DefaultSourceDir
	}
	if c.Workspace.ArtifactPath == "" {
		c.Workspace.ArtifactPath = DefaultArtifactPath
	}
	if c.Workspace.IDLPath == "" {
		c.Workspace.IDLPath = DefaultIDLPath
	}
	if c.Toolchain.Command == "" {
		c.Toolchain.Command = DefaultCommand
		if len(c.Toolchain.Args) == 0 {
			c.Toolchain.Args = []string{"build"}
		}
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.History.Retention == "" {
		c.History.Retention = DefaultRetention
	}
	if c.History.PruneInterval == "" {
		c.History.PruneInterval = DefaultPruneInterval
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultSubject
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
