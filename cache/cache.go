// Package cache provides the JSON key/value cache used for read-heavy listings
// and for refresh-token revocation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a TTL key/value store holding JSON documents
type Store interface {
	// Get unmarshals the value at key into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cache keys
func MyOrdersKey(userID uint) string { return "orders:user:" + strconv.FormatUint(uint64(userID), 10) }

func RestaurantKey(id uint) string { return "restaurant:" + strconv.FormatUint(uint64(id), 10) }

const (
	FeaturedKey   = "featured:all"
	CategoriesKey = "categories:all"
)

func revokedKey(tokenID string) string { return "revoked:refresh:" + tokenID }

// RedisStore keeps values in Redis
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is the single-process fallback used when no Redis is configured
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(entry.value, dest)
}

func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{value: b}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

// Revoke marks a refresh token id as unusable until ttl elapses
func Revoke(ctx context.Context, store Store, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return store.Set(ctx, revokedKey(tokenID), true, ttl)
}

// IsRevoked reports whether the refresh token id was revoked
func IsRevoked(ctx context.Context, store Store, tokenID string) (bool, error) {
	var revoked bool
	found, err := store.Get(ctx, revokedKey(tokenID), &revoked)
	if err != nil {
		return false, err
	}
	return found && revoked, nil
}
