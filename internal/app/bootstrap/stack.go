package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	draftapproval "vitrine/contexts/merchant-onboarding/draft-approval"
	approvalmemory "vitrine/contexts/merchant-onboarding/draft-approval/adapters/memory"
	approvalpostgres "vitrine/contexts/merchant-onboarding/draft-approval/adapters/postgres"
	approvalprometheus "vitrine/contexts/merchant-onboarding/draft-approval/adapters/prometheus"
	approvalsession "vitrine/contexts/merchant-onboarding/draft-approval/adapters/session"
	onboardingstatus "vitrine/contexts/merchant-onboarding/onboarding-status"
	statusmemory "vitrine/contexts/merchant-onboarding/onboarding-status/adapters/memory"
	statuspostgres "vitrine/contexts/merchant-onboarding/onboarding-status/adapters/postgres"
	statusredis "vitrine/contexts/merchant-onboarding/onboarding-status/adapters/redis"
	statussession "vitrine/contexts/merchant-onboarding/onboarding-status/adapters/session"
	workflowtracker "vitrine/contexts/merchant-onboarding/workflow-tracker"
	trackermemory "vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/memory"
	trackerpostgres "vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/postgres"
	trackerprometheus "vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/prometheus"
	trackerports "vitrine/contexts/merchant-onboarding/workflow-tracker/ports"
	contractsv1 "vitrine/contracts/gen/events/v1"
	"vitrine/internal/platform/config"
	"vitrine/internal/platform/db"
	"vitrine/internal/platform/messaging"
	"vitrine/internal/platform/metrics"
	"vitrine/internal/platform/session"
	"vitrine/internal/platform/telemetry"

	"github.com/redis/go-redis/v9"
)

type eventBus interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, contractsv1.Envelope) error,
	) error
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// stack owns every connection and module of one process. API and worker apps
// built from the same stack share stores, bus and caches.
type stack struct {
	cfg    config.Config
	logger *slog.Logger

	postgres *db.Postgres
	redis    *redis.Client
	bus      eventBus
	auth     session.Authenticator
	registry *metrics.Registry

	tracker  workflowtracker.Module
	approval draftapproval.Module
	status   onboardingstatus.Module

	outbox       trackerports.OutboxRepository
	trackerClock trackerports.Clock

	shutdownTelemetry telemetry.ShutdownFunc
	closeOnce         sync.Once
	closeErr          error
}

func buildStack(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &stack{cfg: cfg, logger: logger}

	shutdown, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	s.shutdownTelemetry = shutdown

	if err := s.connect(ctx); err != nil {
		_ = s.close()
		return nil, err
	}
	s.wireModules()

	auth, err := newAuthenticator(ctx, cfg)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.auth = auth
	s.registry = metrics.NewRegistry(
		approvalprometheus.Collectors(),
		trackerprometheus.Collectors(),
	)

	logger.Info("process stack ready",
		"event", "bootstrap_stack_ready",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"storage", s.storageMode(),
		"event_bus", cfg.EventBus,
		"auth_mode", cfg.AuthMode,
		"redis", s.redis != nil,
	)
	return s, nil
}

func (s *stack) connect(ctx context.Context) error {
	if s.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.RedisAddr,
			DB:       s.cfg.RedisDB,
			Password: s.cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("ping redis: %w", err)
		}
		s.redis = client
	}

	switch s.cfg.EventBus {
	case "redis":
		if s.redis == nil {
			return errors.New("event_bus redis requires redis_addr")
		}
		s.bus = messaging.NewRedisStreams(s.redis, s.logger)
	default:
		s.bus = messaging.NewInProcess(s.logger)
	}

	if !s.cfg.InMemory() {
		pg, err := db.Connect(s.cfg.PostgresDSN)
		if err != nil {
			return err
		}
		s.postgres = pg
	}
	return nil
}

// wireModules builds the tracker first, then status, then approval: approval
// depends on both through the bridges.
func (s *stack) wireModules() {
	s.wireTracker()

	var sharedStores *approvalmemory.Store
	if s.postgres == nil {
		sharedStores = approvalmemory.NewStore()
	}
	s.wireStatus(sharedStores)
	s.wireApproval(sharedStores)
}

func (s *stack) wireTracker() {
	deps := workflowtracker.Dependencies{
		Metrics: trackerprometheus.Metrics{},
		Logger:  s.logger,
	}
	if s.postgres != nil {
		repo := trackerpostgres.NewRepository(s.postgres.DB, s.logger)
		deps.Repository = repo
		deps.Clock = trackerpostgres.SystemClock{}
		deps.IDGenerator = trackerpostgres.UUIDGenerator{}
		s.tracker = workflowtracker.NewModule(deps)
		s.outbox = repo
		s.trackerClock = trackerpostgres.SystemClock{}
		return
	}

	store := trackermemory.NewStore()
	deps.Repository = store
	deps.Clock = store
	deps.IDGenerator = store
	s.tracker = workflowtracker.NewModule(deps)
	s.tracker.Store = store
	s.outbox = store
	s.trackerClock = store
}

func (s *stack) wireStatus(sharedStores *approvalmemory.Store) {
	deps := onboardingstatus.Dependencies{
		Sessions:   statussession.Provider{},
		Subscriber: s.bus,
		Clock:      systemClock{},
		Logger:     s.logger,
		CacheTTL:   s.cfg.StatusCacheTTL,
		DedupTTL:   s.cfg.DedupTTL,
	}

	if s.postgres != nil {
		repo := statuspostgres.NewRepository(s.postgres.DB, s.logger)
		deps.Stores = repo
		deps.Statuses = repo
		deps.Dedup = repo
	} else {
		shared := sharedStoreStatus{store: sharedStores}
		deps.Stores = shared
		deps.Statuses = shared
	}

	local := statusmemory.NewStore()
	if s.redis != nil {
		cache := statusredis.NewCache(s.redis)
		deps.Cache = cache
		if deps.Dedup == nil {
			deps.Dedup = cache
		}
	} else {
		deps.Cache = local
	}
	if deps.Dedup == nil {
		deps.Dedup = local
	}

	s.status = onboardingstatus.NewModule(deps)
}

func (s *stack) wireApproval(sharedStores *approvalmemory.Store) {
	deps := draftapproval.Dependencies{
		Sessions:       approvalsession.Provider{},
		StatusUpdater:  statusBridge{status: s.status.Service},
		Workflows:      workflowBridge{tracker: s.tracker.Service, logger: s.logger},
		Metrics:        approvalprometheus.Metrics{},
		Logger:         s.logger,
		IdempotencyTTL: s.cfg.IdempotencyTTL,
	}
	if s.postgres != nil {
		repo := approvalpostgres.NewRepository(s.postgres.DB, s.logger)
		deps.Organizations = repo
		deps.Stores = repo
		deps.Slugs = repo
		deps.Idempotency = repo
		deps.Clock = approvalpostgres.SystemClock{}
		deps.IDGenerator = approvalpostgres.UUIDGenerator{}
	} else {
		deps.Organizations = sharedStores
		deps.Stores = sharedStores
		deps.Slugs = sharedStores
		deps.Idempotency = sharedStores
		deps.Clock = sharedStores
		deps.IDGenerator = sharedStores
	}
	s.approval = draftapproval.NewModule(deps)
	s.approval.Store = sharedStores
}

func newAuthenticator(ctx context.Context, cfg config.Config) (session.Authenticator, error) {
	if cfg.AuthMode != "oidc" {
		return session.HeaderAuthenticator{}, nil
	}
	auth, err := session.NewOIDCAuthenticator(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	if err != nil {
		return nil, fmt.Errorf("setup oidc authenticator: %w", err)
	}
	return auth, nil
}

func (s *stack) storageMode() string {
	if s.postgres != nil {
		return "postgres"
	}
	return "memory"
}

func (s *stack) close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.redis != nil {
			errs = append(errs, s.redis.Close())
		}
		if s.postgres != nil {
			errs = append(errs, s.postgres.Close())
		}
		if s.shutdownTelemetry != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			errs = append(errs, s.shutdownTelemetry(ctx))
			cancel()
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
