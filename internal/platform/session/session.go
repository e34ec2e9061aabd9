// Package session authenticates API callers and carries the resulting
// identity through the request context. Services never read identity
// headers themselves; they ask for the session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Session struct {
	UserID string
	Email  string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Session, error)
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok || strings.TrimSpace(s.UserID) == "" {
		return Session{}, false
	}
	return s, true
}

// Middleware attaches the caller's session when authentication succeeds.
// Failed authentication is not rejected here: each service answers an
// anonymous caller in its own response shape. Presented but invalid
// credentials are logged.
func Middleware(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := auth.Authenticate(r)
			if err != nil {
				if err != ErrUnauthenticated {
					logger.Warn("session authentication failed",
						"event", "session_authentication_failed",
						"module", "internal/platform/session",
						"layer", "platform",
						"path", r.URL.Path,
						"error", err.Error(),
					)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
