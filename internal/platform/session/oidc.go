package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
)

// OIDCAuthenticator verifies bearer ID tokens against the identity provider.
type OIDCAuthenticator struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCAuthenticator(ctx context.Context, issuer string, clientID string) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return NewOIDCAuthenticatorWithVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

func NewOIDCAuthenticatorWithVerifier(verifier *oidc.IDTokenVerifier) *OIDCAuthenticator {
	return &OIDCAuthenticator{verifier: verifier}
}

func (a *OIDCAuthenticator) Authenticate(r *http.Request) (Session, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	token, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return Session{}, fmt.Errorf("%w: decode claims: %v", ErrUnauthenticated, err)
	}
	if strings.TrimSpace(token.Subject) == "" {
		return Session{}, ErrUnauthenticated
	}
	return Session{UserID: token.Subject, Email: claims.Email}, nil
}
