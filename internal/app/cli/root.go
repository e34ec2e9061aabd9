// Package cli is the cobra command tree of the vitrine binaries.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vitrine/internal/app/bootstrap"
	"vitrine/internal/platform/config"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

type options struct {
	configFile     string
	embeddedWorker string
}

// NewRootCommand builds the command tree. Running the root without a
// subcommand serves the API.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "vitrine",
		Short:         "Merchant onboarding API for the vitrine storefront platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "optional YAML config file; VITRINE_* env vars override it")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}
	serve.Flags().StringVar(&opts.embeddedWorker, "embedded-worker", "auto",
		"run the outbox relay and consumers in this process: auto, true or false (auto enables it without postgres)")

	worker := &cobra.Command{
		Use:   "worker",
		Short: "Run the outbox relay and event consumers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres tables owned by this service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return bootstrap.Migrate(cmd.Context(), cfg, logger)
		},
	}

	root.AddCommand(serve, worker, migrate)
	return root
}

// Execute runs the command tree until SIGINT/SIGTERM and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("command failed",
			"event", "cli_command_failed",
			"module", "internal/app/cli",
			"layer", "platform",
			"error", err.Error(),
		)
		stop()
		os.Exit(1)
	}
}

func loadConfig(opts *options, stderr io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := NewLogger(stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// NewLogger returns a JSON slog logger at the named level (debug, info, warn,
// error). Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func embedWorker(mode string, cfg config.Config) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return cfg.InMemory(), nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.New("embedded-worker must be auto, true or false")
	}
}

func runServe(ctx context.Context, opts *options, stderr io.Writer) error {
	cfg, logger, err := loadConfig(opts, stderr)
	if err != nil {
		return err
	}
	embedded, err := embedWorker(opts.embeddedWorker, cfg)
	if err != nil {
		return err
	}

	var (
		api    *bootstrap.APIApp
		worker *bootstrap.WorkerApp
	)
	if embedded {
		api, worker, err = bootstrap.BuildEmbedded(ctx, cfg, logger)
	} else {
		api, err = bootstrap.BuildAPI(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}
	defer func() { _ = api.Close() }()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return api.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return api.Shutdown(shutdownCtx)
	})
	if worker != nil {
		group.Go(func() error {
			return worker.Run(groupCtx)
		})
	}
	return group.Wait()
}

func runWorker(ctx context.Context, opts *options, stderr io.Writer) error {
	cfg, logger, err := loadConfig(opts, stderr)
	if err != nil {
		return err
	}
	worker, err := bootstrap.BuildWorker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = worker.Close() }()
	return worker.Run(ctx)
}
