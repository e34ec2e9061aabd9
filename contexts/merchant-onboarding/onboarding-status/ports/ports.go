package ports

import (
	"context"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	contractsv1 "vitrine/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

type User struct {
	UserID string
}

// SessionProvider returns domainerrors.ErrUnauthorized without a valid session.
type SessionProvider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// StoreResolver maps a user to their organization's store. It returns
// domainerrors.ErrNoStore when none is provisioned.
type StoreResolver interface {
	ResolveStore(ctx context.Context, userID string) (entities.StoreRef, error)
}

// StatusStore reads and writes the single stores.onboarding_completed column,
// always scoped by store id.
type StatusStore interface {
	GetOnboardingStatus(ctx context.Context, storeID string) (entities.Status, error)
	SetOnboardingStatus(ctx context.Context, storeID string, status entities.Status) error
}

// StatusCache holds the gating lookup: user -> store id, store id -> status.
// Implementations expire entries after ttl.
type StatusCache interface {
	GetStoreID(ctx context.Context, userID string) (string, bool, error)
	SetStoreID(ctx context.Context, userID string, storeID string, ttl time.Duration) error
	GetStatus(ctx context.Context, storeID string) (entities.Status, bool, error)
	SetStatus(ctx context.Context, storeID string, status entities.Status, ttl time.Duration) error
}

type EventDedupStore interface {
	// ReserveEvent returns true when eventID was already processed.
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type EventEnvelope = contractsv1.Envelope

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
