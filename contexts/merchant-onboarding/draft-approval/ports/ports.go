package ports

import (
	"context"
	"time"

	"vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type User struct {
	UserID string
	Email  string
}

// SessionProvider resolves the authenticated caller from the request context.
// It returns domainerrors.ErrUnauthorized when there is no valid session.
type SessionProvider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// OrganizationResolver returns domainerrors.ErrStoreNotFound when the user has
// no provisioned store.
type OrganizationResolver interface {
	GetUserOrganization(ctx context.Context, userID string) (entities.Organization, error)
}

type StoreRepository interface {
	CountProducts(ctx context.Context, storeID string) (int, error)
	// UpsertAIPreferences merges prefs key by key into the store's settings
	// blob; keys absent from prefs are left untouched.
	UpsertAIPreferences(ctx context.Context, storeID string, prefs map[string]any, now time.Time) error
	UpdateStoreName(ctx context.Context, storeID string, name string, now time.Time) error
	// InsertProducts writes the whole batch in a single call.
	InsertProducts(ctx context.Context, products []entities.StoreProduct) error
}

// SlugGenerator returns a slug unique within the store. reserved holds slugs
// already handed out for the batch being built but not yet persisted.
type SlugGenerator interface {
	GenerateSlug(ctx context.Context, storeID string, name string, reserved map[string]struct{}) (string, error)
}

// OnboardingStatusUpdater flips stores.onboarding_completed to completed.
type OnboardingStatusUpdater interface {
	MarkCompleted(ctx context.Context, storeID string) error
}

// WorkflowNotifier advances the conversation's tracked workflow after
// products are persisted. Tracking is best-effort and reports success only.
type WorkflowNotifier interface {
	ProductsPersisted(ctx context.Context, conversationID string, productIDs []string) bool
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Metrics interface {
	RecordApproval(outcome string, duration time.Duration)
	RecordProductsInserted(count int)
}
