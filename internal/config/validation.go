package config

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return required("server.listen")
	}
	if c.Server.MaxConnections < 0 {
		return invalid("server.max_connections", "must not be negative")
	}
	if _, err := parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, false); err != nil {
		return err
	}

	for field, p := range map[string]string{
		"workspace.source_dir":    c.Workspace.SourceDir,
		"workspace.artifact_path": c.Workspace.ArtifactPath,
		"workspace.idl_path":      c.Workspace.IDLPath,
	} {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return invalid(field, "must be a relative path inside the workspace")
		}
	}

	if strings.TrimSpace(c.Toolchain.Command) == "" {
		return required("toolchain.command")
	}
	if _, err := parseDuration("toolchain.timeout", c.Toolchain.Timeout, true); err != nil {
		return err
	}

	if c.History.Enabled {
		if _, err := parseDuration("history.retention", c.History.Retention, false); err != nil {
			return err
		}
		if _, err := parseDuration("history.prune_interval", c.History.PruneInterval, false); err != nil {
			return err
		}
	}

	if c.Notify.NATSURL != "" && strings.TrimSpace(c.Notify.Subject) == "" {
		return required("notify.subject")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "must start with /")
	}
	return c.Logging.validate()
}

// ShutdownTimeoutDuration returns the parsed server shutdown timeout.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.ShutdownTimeout)
	if d <= 0 {
		d, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return d
}

// TimeoutDuration returns the invocation timeout; zero means unbounded.
func (t ToolchainConfig) TimeoutDuration() time.Duration {
	if t.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(t.Timeout)
	return d
}

// EnvList renders Env as sorted KEY=VALUE pairs.
func (t ToolchainConfig) EnvList() []string {
	if len(t.Env) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.Env))
	for k, v := range t.Env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether two toolchain definitions would run the same command.
func (t ToolchainConfig) Equal(other ToolchainConfig) bool {
	if t.Command != other.Command || t.Timeout != other.Timeout {
		return false
	}
	if strings.Join(t.Args, "\x00") != strings.Join(other.Args, "\x00") {
		return false
	}
	return strings.Join(t.EnvList(), "\x00") == strings.Join(other.EnvList(), "\x00")
}

// RetentionDuration returns how long build history is kept.
func (h HistoryConfig) RetentionDuration() time.Duration {
	d, _ := time.ParseDuration(h.Retention)
	return d
}

// PruneIntervalDuration returns how often expired history is pruned.
func (h HistoryConfig) PruneIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(h.PruneInterval)
	return d
}

// Enabled reports whether build notifications should be published.
func (n NotifyConfig) Enabled() bool {
	return strings.TrimSpace(n.NATSURL) != ""
}

func parseDuration(field, raw string, allowEmpty bool) (time.Duration, error) {
	if raw == "" && allowEmpty {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.ConfigError("invalid duration").
			WithCause(err).
			WithContext("field", field).
			WithContext("value", raw).
			Build()
	}
	if d <= 0 {
		return 0, invalid(field, "must be positive")
	}
	return d, nil
}

func required(field string) error {
	return errors.ConfigError("required configuration missing").
		WithContext("field", field).
		Build()
}

func invalid(field, reason string) error {
	return errors.ConfigError("invalid configuration value").
		WithContext("field", field).
		WithContext("reason", reason).
		Build()
}
