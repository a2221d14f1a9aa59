package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studybud/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	// TopicSidebarKey caches the first N topics shown beside room lists.
	TopicSidebarKey = "topics:sidebar:%d"
	// TopicSidebarTTL bounds staleness if an invalidation is missed.
	TopicSidebarTTL = 10 * time.Minute
)

// Store is a JSON cache on top of Redis. A Store with a nil client caches nothing.
type Store struct {
	client *redis.Client
}

// NewStore wraps client. client may be nil.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Cache failures never fail the call.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

// InvalidatePattern deletes every key matching pattern.
func (s *Store) InvalidatePattern(ctx context.Context, pattern string) {
	if s == nil || s.client == nil {
		return
	}
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		s.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", "pattern", pattern, "error", err)
	}
}
