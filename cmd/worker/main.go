package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vitrine/internal/app/bootstrap"
	"vitrine/internal/app/cli"
	"vitrine/internal/platform/config"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Start consumers and the outbox relay until SIGINT/SIGTERM.
func main() {
	if err := run(); err != nil {
		log.Fatalf("vitrine worker stopped with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cli.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()
	return app.Run(ctx)
}
