package redisadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "vitrine:onboarding"

// Cache keeps the gating lookups and consumer dedup reservations in Redis so
// every API replica sees the same view.
type Cache struct {
	client *redis.Client
	prefix string
}

type Option func(*Cache)

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = strings.TrimSuffix(prefix, ":")
	}
}

func NewCache(client *redis.Client, opts ...Option) *Cache {
	cache := &Cache{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

func (c *Cache) GetStoreID(ctx context.Context, userID string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get store id: %w", err)
	}
	return value, true, nil
}

func (c *Cache) SetStoreID(ctx context.Context, userID string, storeID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.userKey(userID), storeID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set store id: %w", err)
	}
	return nil
}

func (c *Cache) GetStatus(ctx context.Context, storeID string) (entities.Status, bool, error) {
	value, err := c.client.Get(ctx, c.storeKey(storeID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get status: %w", err)
	}
	return entities.StoredStatus(value), true, nil
}

func (c *Cache) SetStatus(ctx context.Context, storeID string, status entities.Status, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.storeKey(storeID), string(status), ttl).Err(); err != nil {
		return fmt.Errorf("redis set status: %w", err)
	}
	return nil
}

// ReserveEvent claims eventID with SETNX. An existing claim with a different
// payload hash is reported as a conflict.
func (c *Cache) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	key := c.eventKey(eventID)
	claimed, err := c.client.SetNX(ctx, key, payloadHash, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis reserve event: %w", err)
	}
	if claimed {
		return false, nil
	}

	existing, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			return c.ReserveEvent(ctx, eventID, payloadHash, expiresAt)
		}
		return false, fmt.Errorf("redis read event reservation: %w", err)
	}
	if existing != payloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func (c *Cache) userKey(userID string) string {
	return c.prefix + ":user:" + strings.TrimSpace(userID)
}

func (c *Cache) storeKey(storeID string) string {
	return c.prefix + ":store:" + strings.TrimSpace(storeID)
}

func (c *Cache) eventKey(eventID string) string {
	return c.prefix + ":event:" + strings.TrimSpace(eventID)
}

var _ ports.StatusCache = (*Cache)(nil)
var _ ports.EventDedupStore = (*Cache)(nil)
