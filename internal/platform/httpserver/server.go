package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	draftapproval "vitrine/contexts/merchant-onboarding/draft-approval"
	onboardingstatus "vitrine/contexts/merchant-onboarding/onboarding-status"
	workflowtracker "vitrine/contexts/merchant-onboarding/workflow-tracker"
	_ "vitrine/internal/platform/httpserver/docs"
	"vitrine/internal/platform/session"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 1 << 20

// Modules are the bounded-context modules served by the API process.
type Modules struct {
	Workflows workflowtracker.Module
	Approval  draftapproval.Module
	Status    onboardingstatus.Module
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	auth    session.Authenticator
	metrics http.Handler
	modules Modules
	http    *http.Server
}

func New(
	modules Modules,
	auth session.Authenticator,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if auth == nil {
		auth = session.HeaderAuthenticator{}
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		auth:    auth,
		metrics: metrics,
		modules: modules,
	}
	s.registerRoutes()
	return s
}

// Handler is the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mux, "vitrine-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.Handle("POST /approve-draft", s.authenticated(s.handleApproveDraft))
	s.mux.Handle("POST /api/onboarding/v1/approve-draft", s.authenticated(s.handleApproveDraft))

	s.mux.Handle("GET /api/onboarding/v1/status", s.authenticated(s.handleGetOnboardingStatus))
	s.mux.Handle("PUT /api/onboarding/v1/status", s.authenticated(s.handleUpdateOnboardingStatus))
	s.mux.Handle("POST /api/onboarding/v1/complete", s.authenticated(s.handleCompleteOnboarding))
	s.mux.Handle("POST /api/onboarding/v1/skip", s.authenticated(s.handleSkipOnboarding))

	s.mux.Handle("POST /api/onboarding/v1/workflows", s.authenticated(s.handleCreateWorkflow))
	s.mux.Handle("GET /api/onboarding/v1/conversations/{conversation_id}/workflow", s.authenticated(s.handleGetConversationWorkflow))
	s.mux.Handle("POST /api/onboarding/v1/workflows/{workflow_id}/advance", s.authenticated(s.handleAdvanceWorkflow))
	s.mux.Handle("PATCH /api/onboarding/v1/workflows/{workflow_id}/data", s.authenticated(s.handleUpdateWorkflowData))
}

func (s *Server) authenticated(handler http.HandlerFunc) http.Handler {
	return session.Middleware(s.auth, s.logger)(handler)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
