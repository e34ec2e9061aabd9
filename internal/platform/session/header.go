package session

import (
	"net/http"
	"strings"
)

// HeaderAuthenticator trusts an upstream gateway that has already verified
// the bearer token and forwards the subject in X-User-Id.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (Session, error) {
	if _, ok := bearerToken(r); !ok {
		return Session{}, ErrUnauthenticated
	}
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return Session{}, ErrUnauthenticated
	}
	return Session{
		UserID: userID,
		Email:  strings.TrimSpace(r.Header.Get("X-User-Email")),
	}, nil
}
