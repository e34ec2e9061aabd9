package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	approvalpostgres "vitrine/contexts/merchant-onboarding/draft-approval/adapters/postgres"
	statuspostgres "vitrine/contexts/merchant-onboarding/onboarding-status/adapters/postgres"
	statusworkers "vitrine/contexts/merchant-onboarding/onboarding-status/application/workers"
	trackerpostgres "vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/postgres"
	trackerworkers "vitrine/contexts/merchant-onboarding/workflow-tracker/application/workers"
	"vitrine/internal/platform/config"
	"vitrine/internal/platform/db"
	"vitrine/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server *httpserver.Server
	stack  *stack
	logger *slog.Logger
}

type WorkerApp struct {
	stack              *stack
	outboxRelay        trackerworkers.OutboxRelay
	completions        statusworkers.WorkflowCompletionConsumer
	consumeCompletions bool
	pollInterval       time.Duration
	logger             *slog.Logger
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	st, err := buildStack(ctx, cfg, processLogger(logger, cfg, "api"))
	if err != nil {
		return nil, err
	}
	return newAPIApp(st), nil
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	st, err := buildStack(ctx, cfg, processLogger(logger, cfg, "worker"))
	if err != nil {
		return nil, err
	}
	return newWorkerApp(st), nil
}

// BuildEmbedded builds an API and a worker over one stack. Without postgres
// the worker can only see the API's outbox and store rows this way.
func BuildEmbedded(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, *WorkerApp, error) {
	st, err := buildStack(ctx, cfg, processLogger(logger, cfg, "embedded"))
	if err != nil {
		return nil, nil, err
	}
	return newAPIApp(st), newWorkerApp(st), nil
}

// Migrate creates every table the postgres adapters own.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger = processLogger(logger, cfg, "migrate")
	if cfg.InMemory() {
		return errors.New("migrate requires postgres_dsn")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	if err := pg.Migrate(ctx,
		approvalpostgres.AutoMigrate,
		trackerpostgres.AutoMigrate,
		statuspostgres.AutoMigrate,
	); err != nil {
		return err
	}
	logger.Info("schema migrated",
		"event", "bootstrap_schema_migrated",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return nil
}

func newAPIApp(st *stack) *APIApp {
	modules := httpserver.Modules{
		Workflows: st.tracker,
		Approval:  st.approval,
		Status:    st.status,
	}
	return &APIApp{
		server: httpserver.New(modules, st.auth, st.registry.Handler(), st.logger, normalizeAddr(st.cfg.HTTPPort)),
		stack:  st,
		logger: st.logger,
	}
}

func newWorkerApp(st *stack) *WorkerApp {
	pollInterval := st.cfg.WorkerPollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &WorkerApp{
		stack: st,
		outboxRelay: trackerworkers.OutboxRelay{
			Outbox:    st.outbox,
			Publisher: st.bus,
			Clock:     st.trackerClock,
			BatchSize: 100,
			Logger:    st.logger,
		},
		completions:        st.status.CompletionConsumer,
		consumeCompletions: st.cfg.EnableBulkCompletionConsumer,
		pollInterval:       pollInterval,
		logger:             st.logger,
	}
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *APIApp) Close() error {
	return a.stack.close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consumeCompletions {
		if err := w.completions.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"consume_completions", w.consumeCompletions,
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	return w.stack.close()
}

func processLogger(logger *slog.Logger, cfg config.Config, process string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("service", cfg.ServiceName, "process", process)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
