package cmd

import (
	"context"
	"fmt"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/server"
	"github.com/nibzard/tasktrack/internal/ui"
)

// serveCommand runs the HTTP API until SIGINT or SIGTERM.
func serveCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errs[0])
	}

	logger := newLogger(cfg)
	c, closeTracker, err := openTracker(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(c, server.Options{Addr: cfg.ListenAddr, Logger: logger})
	if err := srv.Start(ctx); err != nil {
		_ = closeTracker()
		return err
	}
	logger.Info("serving tasks", "addr", srv.Addr(), "data_file", cfg.DataFile)

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout(), map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	exitCode := <-wait
	if err := closeTracker(); err != nil {
		logger.Warn("closing journal", "err", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("shutdown completed with exit code %d", exitCode)
	}
	logger.Info("shutdown completed")
	return nil
}

// tuiCommand launches the TUI on the configured data file.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	logger := newLogger(cfg)
	c, closeTracker, err := openTracker(cfg, logger)
	if err != nil {
		return err
	}
	defer closeTracker()

	return ui.RunTUI(ctx, c, ui.Options{Refresh: cfg.TUIRefresh(), Logger: logger})
}
