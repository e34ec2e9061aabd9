package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"
)

type storeRow struct {
	status string
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

type dedupEntry struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu sync.RWMutex

	stores  map[string]storeRow
	members map[string]string // user_id -> store_id
	cache   map[string]cacheEntry
	dedup   map[string]dedupEntry
	writes  int
}

func NewStore() *Store {
	return &Store{
		stores:  make(map[string]storeRow),
		members: make(map[string]string),
		cache:   make(map[string]cacheEntry),
		dedup:   make(map[string]dedupEntry),
	}
}

// SeedStore provisions storeID with a raw onboarding_completed value and
// attaches userID to it.
func (s *Store) SeedStore(userID string, storeID string, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[storeID] = storeRow{status: status}
	if userID != "" {
		s.members[userID] = storeID
	}
}

func (s *Store) ResolveStore(_ context.Context, userID string) (entities.StoreRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storeID, ok := s.members[strings.TrimSpace(userID)]
	if !ok {
		return entities.StoreRef{}, domainerrors.ErrNoStore
	}
	row, ok := s.stores[storeID]
	if !ok {
		return entities.StoreRef{}, domainerrors.ErrNoStore
	}
	return entities.StoreRef{StoreID: storeID, Status: entities.StoredStatus(row.status)}, nil
}

func (s *Store) GetOnboardingStatus(_ context.Context, storeID string) (entities.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.stores[storeID]
	if !ok {
		return "", domainerrors.ErrNoStore
	}
	return entities.StoredStatus(row.status), nil
}

func (s *Store) SetOnboardingStatus(_ context.Context, storeID string, status entities.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.stores[storeID]
	if !ok {
		return domainerrors.ErrNoStore
	}
	row.status = string(status)
	s.stores[storeID] = row
	s.writes++
	return nil
}

// Writes counts SetOnboardingStatus calls that reached a row.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// RawStatus returns the stored column value for assertions.
func (s *Store) RawStatus(storeID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stores[storeID].status
}

func (s *Store) GetStoreID(_ context.Context, userID string) (string, bool, error) {
	return s.getCached("user:" + userID)
}

func (s *Store) SetStoreID(_ context.Context, userID string, storeID string, ttl time.Duration) error {
	s.setCached("user:"+userID, storeID, ttl)
	return nil
}

func (s *Store) GetStatus(_ context.Context, storeID string) (entities.Status, bool, error) {
	value, found, err := s.getCached("status:" + storeID)
	return entities.Status(value), found, err
}

func (s *Store) SetStatus(_ context.Context, storeID string, status entities.Status, ttl time.Duration) error {
	s.setCached("status:"+storeID, string(status), ttl)
	return nil
}

func (s *Store) getCached(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *Store) setCached(key string, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dedup[eventID]
	if !ok || time.Now().After(existing.expiresAt) {
		s.dedup[eventID] = dedupEntry{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
		return false, nil
	}
	if existing.payloadHash != payloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.StoreResolver = (*Store)(nil)
var _ ports.StatusStore = (*Store)(nil)
var _ ports.StatusCache = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
