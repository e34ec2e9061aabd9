package draftapproval

import (
	"log/slog"
	"time"

	httpadapter "vitrine/contexts/merchant-onboarding/draft-approval/adapters/http"
	"vitrine/contexts/merchant-onboarding/draft-approval/adapters/memory"
	"vitrine/contexts/merchant-onboarding/draft-approval/application"
	"vitrine/contexts/merchant-onboarding/draft-approval/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Sessions       ports.SessionProvider
	Organizations  ports.OrganizationResolver
	Stores         ports.StoreRepository
	Slugs          ports.SlugGenerator
	StatusUpdater  ports.OnboardingStatusUpdater
	Workflows      ports.WorkflowNotifier
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Metrics        ports.Metrics
	Logger         *slog.Logger
	IdempotencyTTL time.Duration
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Sessions:       deps.Sessions,
		Organizations:  deps.Organizations,
		Stores:         deps.Stores,
		Slugs:          deps.Slugs,
		StatusUpdater:  deps.StatusUpdater,
		Workflows:      deps.Workflows,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		Metrics:        deps.Metrics,
		Logger:         deps.Logger,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule backs every store-side port with one memory store. The
// session provider and workflow notifier come from the caller.
func NewInMemoryModule(logger *slog.Logger, sessions ports.SessionProvider, workflows ports.WorkflowNotifier) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Sessions:      sessions,
		Organizations: store,
		Stores:        store,
		Slugs:         store,
		StatusUpdater: store,
		Workflows:     workflows,
		Idempotency:   store,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
