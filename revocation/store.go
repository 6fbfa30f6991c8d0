package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is returned when the backing Redis store is unreachable.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

const revokedMarker = "revoked"

// Store is the Redis-backed token blacklist. A single Store is safe for
// concurrent use from many goroutines and many service instances.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a blacklist [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; empty means "tg:bl".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "tg:bl"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// RevokePermanently records token as revoked with no expiry.
//
//	Performance: 1 Redis SET.
func (s *Store) RevokePermanently(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key(token), revokedMarker, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeWithExpiry records token as revoked for ttl. The record is
// indistinguishable from a permanent one in IsRevoked results but
// self-removes once Redis expires the key. A non-positive ttl is treated
// as permanent.
//
//	Performance: 1 Redis SET.
func (s *Store) RevokeWithExpiry(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.RevokePermanently(ctx, token)
	}
	if err := s.redis.Set(ctx, s.key(token), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token is currently revoked.
//
//	Performance: 1 Redis EXISTS.
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Unrevoke removes a revocation record. Removing a record that does not
// exist is not an error.
//
//	Performance: 1 Redis DEL.
func (s *Store) Unrevoke(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
