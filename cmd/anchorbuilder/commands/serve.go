package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Listen string `short:"l" help:"Override server.listen"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, path, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if s.Listen != "" {
		cfg.Server.Listen = s.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg, path)
}

// RunServe runs the daemon until ctx is cancelled.
func RunServe(ctx context.Context, cfg *config.Config, configPath string) error {
	d, err := daemon.New(cfg, configPath)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer stopCancel()
	return d.Stop(stopCtx)
}
