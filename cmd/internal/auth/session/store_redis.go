package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "japa:session:"

// RedisStore keeps one JSON value per user. A single SET replaces the whole
// value, so readers never observe a mix of old and new fields.
//
// Keys expire Grace after the row's ExpiresAt. Expiry decisions are still
// made from ExpiresAt; the key TTL only reclaims memory.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	grace  time.Duration
}

// NewRedisStore builds a RedisStore. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client redis.Cmdable, prefix string, grace time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("session: nil redis client")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if grace < 0 {
		grace = 0
	}
	return &RedisStore{client: client, prefix: prefix, grace: grace}, nil
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, row Row) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	ttl := row.ExpiresAt.Sub(row.IssuedAt) + s.grace
	if ttl <= 0 {
		ttl = s.grace + time.Second
	}
	return s.client.Set(ctx, s.key(row.UserID), b, ttl).Err()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, userID string) (Row, error) {
	b, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}

	var row Row
	if err := json.Unmarshal(b, &row); err != nil {
		return Row{}, fmt.Errorf("session: decode redis row: %w", err)
	}
	return row, nil
}
