package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"
)

const moduleName = "merchant-onboarding/onboarding-status"

const defaultCacheTTL = 10 * time.Minute

type Service struct {
	Sessions ports.SessionProvider
	Stores   ports.StoreResolver
	Statuses ports.StatusStore
	Cache    ports.StatusCache
	Logger   *slog.Logger
	CacheTTL time.Duration
}

// UpdateOnboardingStatus sets the caller's store status. Repeating the same
// status is a no-op in effect and still succeeds.
func (s Service) UpdateOnboardingStatus(ctx context.Context, status string) (entities.Status, error) {
	user, err := s.Sessions.CurrentUser(ctx)
	if err != nil || strings.TrimSpace(user.UserID) == "" {
		return "", domainerrors.ErrUnauthorized
	}
	parsed, ok := entities.ParseStatus(status)
	if !ok {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrInvalidStatus, status)
	}
	store, err := s.resolveStore(ctx, user.UserID)
	if err != nil {
		return "", err
	}
	if err := s.ApplyForStore(ctx, store.StoreID, parsed); err != nil {
		return "", err
	}
	return parsed, nil
}

func (s Service) CompleteOnboarding(ctx context.Context) (entities.Status, error) {
	return s.UpdateOnboardingStatus(ctx, string(entities.StatusCompleted))
}

func (s Service) SkipOnboarding(ctx context.Context) (entities.Status, error) {
	return s.UpdateOnboardingStatus(ctx, string(entities.StatusSkipped))
}

// ApplyForStore writes status for an already-resolved store. Internal flows
// (draft approval, event consumers) enter here; the store id never comes from
// a client.
func (s Service) ApplyForStore(ctx context.Context, storeID string, status entities.Status) error {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return domainerrors.ErrNoStore
	}
	if _, ok := entities.ParseStatus(string(status)); !ok {
		return fmt.Errorf("%w: %q", domainerrors.ErrInvalidStatus, status)
	}

	logger := ResolveLogger(s.Logger)
	if err := s.Statuses.SetOnboardingStatus(ctx, storeID, status); err != nil {
		logger.Error("onboarding status update failed",
			"event", "onboarding_status_update_failed",
			"module", moduleName,
			"layer", "application",
			"store_id", storeID,
			"status", string(status),
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrDatabase, err)
	}

	if s.Cache != nil {
		if err := s.Cache.SetStatus(ctx, storeID, status, s.cacheTTL()); err != nil {
			logger.Warn("onboarding status cache refresh failed",
				"event", "onboarding_status_cache_refresh_failed",
				"module", moduleName,
				"layer", "application",
				"store_id", storeID,
				"error", err.Error(),
			)
		}
	}

	logger.Info("onboarding status updated",
		"event", "onboarding_status_updated",
		"module", moduleName,
		"layer", "application",
		"store_id", storeID,
		"status", string(status),
	)
	return nil
}

// ApplyForUser resolves userID's store and applies status. Used by consumers
// that only know the merchant.
func (s Service) ApplyForUser(ctx context.Context, userID string, status entities.Status) error {
	store, err := s.resolveStore(ctx, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	return s.ApplyForStore(ctx, store.StoreID, status)
}

// GetGatingStatus answers "should onboarding be shown" for the caller. Both
// lookups go through the status cache; a miss falls back to storage and
// repopulates it.
func (s Service) GetGatingStatus(ctx context.Context) (entities.Status, error) {
	user, err := s.Sessions.CurrentUser(ctx)
	if err != nil || strings.TrimSpace(user.UserID) == "" {
		return "", domainerrors.ErrUnauthorized
	}
	logger := ResolveLogger(s.Logger)

	storeID := ""
	if s.Cache != nil {
		if cached, found, err := s.Cache.GetStoreID(ctx, user.UserID); err == nil && found {
			storeID = cached
		} else if err != nil {
			logger.Warn("gating cache read failed",
				"event", "onboarding_gating_cache_read_failed",
				"module", moduleName,
				"layer", "application",
				"user_id", user.UserID,
				"error", err.Error(),
			)
		}
	}

	if storeID == "" {
		store, err := s.resolveStore(ctx, user.UserID)
		if err != nil {
			return "", err
		}
		s.cacheStore(ctx, user.UserID, store)
		return store.Status, nil
	}

	if cached, found, err := s.Cache.GetStatus(ctx, storeID); err == nil && found {
		return cached, nil
	}
	status, err := s.Statuses.GetOnboardingStatus(ctx, storeID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainerrors.ErrDatabase, err)
	}
	s.cacheStore(ctx, user.UserID, entities.StoreRef{StoreID: storeID, Status: status})
	return status, nil
}

func (s Service) resolveStore(ctx context.Context, userID string) (entities.StoreRef, error) {
	store, err := s.Stores.ResolveStore(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNoStore) {
			return entities.StoreRef{}, domainerrors.ErrNoStore
		}
		return entities.StoreRef{}, fmt.Errorf("%w: %v", domainerrors.ErrDatabase, err)
	}
	if strings.TrimSpace(store.StoreID) == "" {
		return entities.StoreRef{}, domainerrors.ErrNoStore
	}
	return store, nil
}

func (s Service) cacheStore(ctx context.Context, userID string, store entities.StoreRef) {
	if s.Cache == nil {
		return
	}
	ttl := s.cacheTTL()
	if err := s.Cache.SetStoreID(ctx, userID, store.StoreID, ttl); err != nil {
		return
	}
	_ = s.Cache.SetStatus(ctx, store.StoreID, store.Status, ttl)
}

func (s Service) cacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return defaultCacheTTL
	}
	return s.CacheTTL
}
