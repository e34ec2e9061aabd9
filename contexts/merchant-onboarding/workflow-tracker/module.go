package workflowtracker

import (
	"log/slog"

	httpadapter "vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/http"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/memory"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/application"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"
)

// Module is the composition surface of the workflow tracker.
// Service is exposed for in-process callers (approval bridge); Store for tests.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repository,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Metrics:     deps.Metrics,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:  store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
