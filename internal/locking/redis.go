// Package locking provides the per-universe exclusive lease held across
// load-simulate-persist. Backed by Redis SET NX PX with a token-checked
// release so an expired lease can never release a successor's.
package locking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

// releaseScript deletes the lease only if the caller still holds it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// DefaultTTL bounds how long a crashed holder can block a universe.
const DefaultTTL = 2 * time.Minute

// Release frees an acquired lease.
type Release func(ctx context.Context) error

// Locker hands out per-key exclusive leases.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// RedisLocker implements Locker on a Redis client.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker. A zero ttl uses DefaultTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire takes the lease for key, failing with a business-rule error when
// another run already holds it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, l.ttl).Result()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "acquiring lock for %s", key)
	}
	if !ok {
		return nil, apperr.BusinessRule("a simulation is already running for this universe")
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Err()
	}
	return release, nil
}

// NoopLocker satisfies Locker without coordination. Used in tests and
// single-instance deployments without Redis.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (Release, error) {
	return func(context.Context) error { return nil }, nil
}
