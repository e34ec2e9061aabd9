package sessionadapter

import (
	"context"

	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"
	"vitrine/internal/platform/session"
)

type Provider struct{}

func (Provider) CurrentUser(ctx context.Context) (ports.User, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return ports.User{}, domainerrors.ErrUnauthorized
	}
	return ports.User{UserID: s.UserID}, nil
}

var _ ports.SessionProvider = Provider{}
