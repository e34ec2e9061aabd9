package onboardingstatus

import (
	"log/slog"
	"time"

	httpadapter "vitrine/contexts/merchant-onboarding/onboarding-status/adapters/http"
	"vitrine/contexts/merchant-onboarding/onboarding-status/adapters/memory"
	"vitrine/contexts/merchant-onboarding/onboarding-status/application"
	"vitrine/contexts/merchant-onboarding/onboarding-status/application/workers"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"
)

type Module struct {
	Handler            httpadapter.Handler
	Service            application.Service
	CompletionConsumer workers.WorkflowCompletionConsumer
	Store              *memory.Store
}

type Dependencies struct {
	Sessions   ports.SessionProvider
	Stores     ports.StoreResolver
	Statuses   ports.StatusStore
	Cache      ports.StatusCache
	Dedup      ports.EventDedupStore
	Subscriber ports.EventSubscriber
	Clock      ports.Clock
	Logger     *slog.Logger
	CacheTTL   time.Duration
	DedupTTL   time.Duration
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Sessions: deps.Sessions,
		Stores:   deps.Stores,
		Statuses: deps.Statuses,
		Cache:    deps.Cache,
		Logger:   deps.Logger,
		CacheTTL: deps.CacheTTL,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
		CompletionConsumer: workers.WorkflowCompletionConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Service:    service,
			Clock:      deps.Clock,
			DedupTTL:   deps.DedupTTL,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule uses one memory store for storage, cache and dedup.
// Callers that share store rows with another service pass their own
// resolver and status store through NewModule instead.
func NewInMemoryModule(logger *slog.Logger, sessions ports.SessionProvider, subscriber ports.EventSubscriber) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Sessions:   sessions,
		Stores:     store,
		Statuses:   store,
		Cache:      store,
		Dedup:      store,
		Subscriber: subscriber,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
