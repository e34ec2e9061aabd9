package sessionadapter

import (
	"context"

	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	"vitrine/contexts/merchant-onboarding/draft-approval/ports"
	"vitrine/internal/platform/session"
)

// Provider reads the caller attached by the platform session middleware.
type Provider struct{}

func (Provider) CurrentUser(ctx context.Context) (ports.User, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return ports.User{}, domainerrors.ErrUnauthorized
	}
	return ports.User{UserID: s.UserID, Email: s.Email}, nil
}

var _ ports.SessionProvider = Provider{}
