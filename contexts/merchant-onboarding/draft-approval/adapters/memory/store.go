package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	"vitrine/contexts/merchant-onboarding/draft-approval/domain/services"
	"vitrine/contexts/merchant-onboarding/draft-approval/ports"
)

// StoreRecord is the in-memory stores row.
type StoreRecord struct {
	StoreID             string
	OrganizationID      string
	Name                string
	Status              string
	OnboardingCompleted string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Store struct {
	mu sync.RWMutex

	stores        map[string]StoreRecord
	members       map[string]string // user_id -> organization_id
	products      map[string][]entities.StoreProduct
	aiPreferences map[string]map[string]any
	idempotency   map[string]ports.IdempotencyRecord
	sequence      uint64
}

func NewStore() *Store {
	return &Store{
		stores:        make(map[string]StoreRecord),
		members:       make(map[string]string),
		products:      make(map[string][]entities.StoreProduct),
		aiPreferences: make(map[string]map[string]any),
		idempotency:   make(map[string]ports.IdempotencyRecord),
	}
}

// SeedStore provisions a store shell and makes userID a member of its organization.
func (s *Store) SeedStore(userID string, record StoreRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.OrganizationID == "" {
		record.OrganizationID = "org_" + record.StoreID
	}
	if record.Status == "" {
		record.Status = "draft"
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.stores[record.StoreID] = record
	if userID != "" {
		s.members[userID] = record.OrganizationID
	}
}

// SeedProducts inserts existing catalog rows, bypassing the approval flow.
func (s *Store) SeedProducts(storeID string, products ...entities.StoreProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range products {
		product.StoreID = storeID
		s.products[storeID] = append(s.products[storeID], product)
	}
}

func (s *Store) GetUserOrganization(ctx context.Context, userID string) (entities.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgID, ok := s.members[strings.TrimSpace(userID)]
	if !ok {
		return entities.Organization{}, domainerrors.ErrStoreNotFound
	}
	var candidates []StoreRecord
	for _, record := range s.stores {
		if record.OrganizationID == orgID {
			candidates = append(candidates, record)
		}
	}
	if len(candidates) == 0 {
		return entities.Organization{}, domainerrors.ErrStoreNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	store := candidates[0]
	return entities.Organization{
		OrganizationID:      orgID,
		StoreID:             store.StoreID,
		StoreStatus:         store.Status,
		OnboardingCompleted: store.OnboardingCompleted,
	}, nil
}

func (s *Store) CountProducts(ctx context.Context, storeID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products[storeID]), nil
}

func (s *Store) UpsertAIPreferences(ctx context.Context, storeID string, prefs map[string]any, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stores[storeID]; !ok {
		return domainerrors.ErrStoreNotFound
	}
	current := s.aiPreferences[storeID]
	if current == nil {
		current = make(map[string]any, len(prefs))
	}
	maps.Copy(current, prefs)
	s.aiPreferences[storeID] = current
	return nil
}

func (s *Store) UpdateStoreName(ctx context.Context, storeID string, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.stores[storeID]
	if !ok {
		return domainerrors.ErrStoreNotFound
	}
	record.Name = name
	record.UpdatedAt = now.UTC()
	s.stores[storeID] = record
	return nil
}

func (s *Store) InsertProducts(ctx context.Context, products []entities.StoreProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// all-or-nothing, like a single multi-row INSERT
	for _, product := range products {
		if _, ok := s.stores[product.StoreID]; !ok {
			return domainerrors.ErrStoreNotFound
		}
		if s.slugTakenLocked(product.StoreID, product.Slug) {
			return fmt.Errorf("duplicate slug %s for store %s", product.Slug, product.StoreID)
		}
	}
	for _, product := range products {
		product.Images = append([]string(nil), product.Images...)
		s.products[product.StoreID] = append(s.products[product.StoreID], product)
	}
	return nil
}

func (s *Store) GenerateSlug(ctx context.Context, storeID string, name string, reserved map[string]struct{}) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return services.NextAvailableSlug(services.SlugBase(name), func(candidate string) bool {
		if _, ok := reserved[candidate]; ok {
			return true
		}
		return s.slugTakenLocked(storeID, candidate)
	}), nil
}

func (s *Store) MarkCompleted(ctx context.Context, storeID string) error {
	return s.SetOnboardingStatus(ctx, storeID, entities.OnboardingCompleted)
}

// SetOnboardingStatus writes the raw onboarding_completed column. It lets the
// onboarding status service share these rows when both run in memory.
func (s *Store) SetOnboardingStatus(_ context.Context, storeID string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.stores[storeID]
	if !ok {
		return domainerrors.ErrStoreNotFound
	}
	record.OnboardingCompleted = value
	s.stores[storeID] = record
	return nil
}

func (s *Store) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	record.Payload = append([]byte(nil), record.Payload...)
	return record, true, nil
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Payload = append([]byte(nil), record.Payload...)
	s.idempotency[record.Key] = record
	return nil
}

// StoreSnapshot returns the stores row for assertions.
func (s *Store) StoreSnapshot(storeID string) (StoreRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.stores[storeID]
	return record, ok
}

func (s *Store) Products(storeID string) []entities.StoreProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.StoreProduct(nil), s.products[storeID]...)
}

func (s *Store) AIPreferences(storeID string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.aiPreferences[storeID])
}

func (s *Store) slugTakenLocked(storeID string, slug string) bool {
	for _, product := range s.products[storeID] {
		if product.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	n := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("prod_%d", n), nil
}

var _ ports.OrganizationResolver = (*Store)(nil)
var _ ports.StoreRepository = (*Store)(nil)
var _ ports.SlugGenerator = (*Store)(nil)
var _ ports.OnboardingStatusUpdater = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
