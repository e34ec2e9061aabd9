package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/adapters/memory"
	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticSession struct {
	userID string
}

func (s staticSession) CurrentUser(context.Context) (ports.User, error) {
	if s.userID == "" {
		return ports.User{}, domainerrors.ErrUnauthorized
	}
	return ports.User{UserID: s.userID}, nil
}

type mockStatusStore struct {
	mock.Mock
}

func (m *mockStatusStore) GetOnboardingStatus(ctx context.Context, storeID string) (entities.Status, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(entities.Status), args.Error(1)
}

func (m *mockStatusStore) SetOnboardingStatus(ctx context.Context, storeID string, status entities.Status) error {
	args := m.Called(ctx, storeID, status)
	return args.Error(0)
}

type brokenResolver struct{}

func (brokenResolver) ResolveStore(context.Context, string) (entities.StoreRef, error) {
	return entities.StoreRef{}, errors.New("connection reset")
}

func newStatusService(userID string, store *memory.Store) Service {
	return Service{
		Sessions: staticSession{userID: userID},
		Stores:   store,
		Statuses: store,
		Cache:    store,
	}
}

func TestCompleteOnboardingIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.SeedStore("user_1", "store_1", "")
	svc := newStatusService("user_1", store)

	for i := 0; i < 2; i++ {
		status, err := svc.CompleteOnboarding(context.Background())
		require.NoError(t, err)
		assert.Equal(t, entities.StatusCompleted, status)
	}
	assert.Equal(t, "completed", store.RawStatus("store_1"))

	gating, err := svc.GetGatingStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, gating.ShowsOnboarding())
}

func TestSkipOnboardingStoresSkipped(t *testing.T) {
	store := memory.NewStore()
	store.SeedStore("user_1", "store_1", "in_progress")
	svc := newStatusService("user_1", store)

	status, err := svc.SkipOnboarding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSkipped, status)
	assert.Equal(t, "skipped", store.RawStatus("store_1"))
}

func TestUpdateOnboardingStatusRejectsUnknownValue(t *testing.T) {
	store := memory.NewStore()
	store.SeedStore("user_1", "store_1", "")
	svc := newStatusService("user_1", store)

	_, err := svc.UpdateOnboardingStatus(context.Background(), "done")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidStatus)
	assert.Equal(t, 0, store.Writes())
}

func TestUpdateOnboardingStatusWritesNothingWithoutSessionOrStore(t *testing.T) {
	cases := []struct {
		name     string
		userID   string
		resolver ports.StoreResolver
		wantErr  error
	}{
		{name: "no session", userID: "", wantErr: domainerrors.ErrUnauthorized},
		{name: "no store", userID: "user_orphan", wantErr: domainerrors.ErrNoStore},
		{name: "lookup failure", userID: "user_1", resolver: brokenResolver{}, wantErr: domainerrors.ErrDatabase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seeded := memory.NewStore()
			seeded.SeedStore("user_1", "store_1", "")
			statuses := &mockStatusStore{}

			svc := Service{
				Sessions: staticSession{userID: tc.userID},
				Stores:   seeded,
				Statuses: statuses,
			}
			if tc.resolver != nil {
				svc.Stores = tc.resolver
			}

			_, err := svc.CompleteOnboarding(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)
			statuses.AssertNotCalled(t, "SetOnboardingStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateOnboardingStatusWrapsStorageFailure(t *testing.T) {
	seeded := memory.NewStore()
	seeded.SeedStore("user_1", "store_1", "")
	statuses := &mockStatusStore{}
	statuses.On("SetOnboardingStatus", mock.Anything, "store_1", entities.StatusCompleted).
		Return(errors.New("deadlock detected")).
		Once()

	svc := Service{
		Sessions: staticSession{userID: "user_1"},
		Stores:   seeded,
		Statuses: statuses,
		Cache:    seeded,
	}

	_, err := svc.CompleteOnboarding(context.Background())
	assert.ErrorIs(t, err, domainerrors.ErrDatabase)
	statuses.AssertExpectations(t)

	// a failed write must not leave a fresh status in the cache
	_, found, err := seeded.GetStatus(context.Background(), "store_1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetGatingStatusServesFromCache(t *testing.T) {
	seeded := memory.NewStore()
	seeded.SeedStore("user_1", "store_1", "in_progress")
	statuses := &mockStatusStore{}

	svc := Service{
		Sessions: staticSession{userID: "user_1"},
		Stores:   seeded,
		Statuses: statuses,
		Cache:    seeded,
		CacheTTL: time.Minute,
	}

	status, err := svc.GetGatingStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInProgress, status)

	cachedStore, found, err := seeded.GetStoreID(context.Background(), "user_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "store_1", cachedStore)

	status, err = svc.GetGatingStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.ShowsOnboarding())
	statuses.AssertNotCalled(t, "GetOnboardingStatus", mock.Anything, mock.Anything)
}

func TestGetGatingStatusFallsBackToStorageOnStatusMiss(t *testing.T) {
	seeded := memory.NewStore()
	seeded.SeedStore("user_1", "store_1", "")
	require.NoError(t, seeded.SetStoreID(context.Background(), "user_1", "store_1", time.Minute))

	statuses := &mockStatusStore{}
	statuses.On("GetOnboardingStatus", mock.Anything, "store_1").Return(entities.StatusSkipped, nil).Once()

	svc := Service{
		Sessions: staticSession{userID: "user_1"},
		Stores:   seeded,
		Statuses: statuses,
		Cache:    seeded,
	}

	status, err := svc.GetGatingStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSkipped, status)
	statuses.AssertExpectations(t)

	cached, found, err := seeded.GetStatus(context.Background(), "store_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entities.StatusSkipped, cached)
}

func TestApplyForUserUsesResolvedStore(t *testing.T) {
	store := memory.NewStore()
	store.SeedStore("merchant_9", "store_9", "in_progress")
	svc := Service{Stores: store, Statuses: store, Cache: store}

	require.NoError(t, svc.ApplyForUser(context.Background(), "merchant_9", entities.StatusCompleted))
	assert.Equal(t, "completed", store.RawStatus("store_9"))

	err := svc.ApplyForUser(context.Background(), "merchant_unknown", entities.StatusCompleted)
	assert.ErrorIs(t, err, domainerrors.ErrNoStore)
	assert.Equal(t, 1, store.Writes())
}
