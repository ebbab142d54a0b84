package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"modelgate/internal/config"
	"modelgate/internal/gateway"
	"modelgate/internal/history"
	"modelgate/internal/logging"
	"modelgate/internal/server"
	"modelgate/internal/upstream"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	lockPath := filepath.Join(filepath.Dir(cfg.History.Path), "modelgate.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return errors.New("another modelgate instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	client := upstream.NewClient(upstream.Config{
		APIKey:         cfg.Upstream.APIKey,
		BaseURL:        cfg.Upstream.BaseURL,
		TimeoutSeconds: cfg.Upstream.RequestTimeout,
	})
	policy := upstream.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelaySeconds * float64(time.Second)),
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelaySeconds * float64(time.Second)),
	}

	orchestrator := gateway.New(
		cfg.Catalog(),
		client,
		policy,
		client.DefaultTimeout(),
		logging.NewComponentLogger(logger, "gateway"),
	)
	srv := server.New(cfg, orchestrator, store, logger)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(runCtx); err != nil {
		return err
	}
	logger.Info("modelgate started",
		logging.String("bind", cfg.Server.Bind),
		logging.String("upstream", cfg.Upstream.BaseURL))

	<-runCtx.Done()
	logger.Info("shutting down")
	srv.Stop()
	return nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.Dir != "" {
		opts.Path = filepath.Join(cfg.Logging.Dir, "modelgate.log")
	}
	return logging.New(opts)
}
