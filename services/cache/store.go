package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
)

const (
	quickRetryDelay = 100 * time.Millisecond
	longRetryDelay  = 2 * time.Second
)

// TrendingKey is the fixed cache key for the trending movies list.
const TrendingKey = "trending_movies"

// DetailsKey builds the cache key for a title's combined details document.
func DetailsKey(tmdbID int64, mediaType string) string {
	return fmt.Sprintf("details_%d_%s", tmdbID, mediaType)
}

// Store is a Redis-backed JSON cache. It is the process-wide cache handle:
// liveness is verified before each operation and the connection is rebuilt
// with backoff when Redis drops. Operations degrade to miss/no-op rather
// than failing the request, so callers can always fall back to a live fetch.
type Store struct {
	url string

	mu     sync.Mutex
	client *redis.Client
}

// NewStore creates a Store for the given redis:// URL. The connection itself
// is established lazily; a Redis that is down at startup only costs cache
// misses until it comes back.
func NewStore(url string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{url: url, client: redis.NewClient(opt)}, nil
}

// Close tears down the underlying connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}

// Ping reports whether Redis is currently reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn().Ping(ctx).Err()
}

func (s *Store) conn() *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Store) reconnect() error {
	opt, err := redis.ParseURL(s.url)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.client
	s.client = redis.NewClient(opt)
	s.mu.Unlock()
	_ = old.Close()
	return nil
}

// ensureConnection pings Redis and, on failure, rebuilds the client once
// after a short delay and once more after a longer one.
func (s *Store) ensureConnection(ctx context.Context) error {
	if err := s.conn().Ping(ctx).Err(); err == nil {
		return nil
	}
	log.Printf("[cache] redis connection lost, attempting reconnection")

	time.Sleep(quickRetryDelay)
	err := retry.Do(
		func() error {
			if err := s.reconnect(); err != nil {
				return err
			}
			return s.conn().Ping(ctx).Err()
		},
		retry.Attempts(2),
		retry.Delay(longRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	log.Printf("[cache] reconnected to redis")
	return nil
}

// Get retrieves the JSON value stored under key into v. It returns false on
// a miss, on connection failure, and on a corrupt entry; there is no error
// path the caller has to handle.
func (s *Store) Get(ctx context.Context, key string, v any) bool {
	if err := s.ensureConnection(ctx); err != nil {
		log.Printf("[cache] get %s: %v; treating as miss", key, err)
		return false
	}
	data, err := s.conn().Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] get %s: %v; treating as miss", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("[cache] get %s: corrupt entry: %v", key, err)
		return false
	}
	return true
}

// Set stores v as JSON under key with the given TTL. The returned error is
// advisory: callers are expected to log it and carry on, a failed write only
// costs a future cache miss.
func (s *Store) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if err := s.ensureConnection(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.conn().Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Like Set, failures are advisory.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.ensureConnection(ctx); err != nil {
		return err
	}
	if err := s.conn().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
