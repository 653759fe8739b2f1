package cache

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another worker is never released from here.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// AcquireLock takes a named non-blocking mutual-exclusion lock with the
// given expiry. It returns a release function and true on success. ok=false
// means either another worker holds the lock or Redis is unreachable; both
// are normal "skip this run" signals, not errors.
func (s *Store) AcquireLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool) {
	if err := s.ensureConnection(ctx); err != nil {
		log.Printf("[cache] lock %s: %v; skipping", name, err)
		return nil, false
	}

	key := "lock:" + name
	token := uuid.NewString()
	acquired, err := s.conn().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		log.Printf("[cache] lock %s: %v; skipping", name, err)
		return nil, false
	}
	if !acquired {
		return nil, false
	}

	release = func() {
		if err := releaseScript.Run(context.Background(), s.conn(), []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("[cache] releasing lock %s: %v", name, err)
		}
	}
	return release, true
}
