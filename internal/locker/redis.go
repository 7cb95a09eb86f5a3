package locker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "studyshelf:lock:"

// releaseScript deletes the key only if it still holds our token, so an
// expired lease re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Locker backed by SET NX PX leases, for deployments that run
// more than one instance against the same store.
//
// A held lease is renewed every ttl/3 until it is released, so a slow
// critical section keeps the key. The ttl only bounds how long a crashed or
// partitioned holder blocks others: if renewal cannot reach Redis for a full
// ttl the lease lapses and mutual exclusion is lost.
type Redis struct {
	client    redis.Cmdable
	ttl       time.Duration
	retryWait time.Duration
	logger    *slog.Logger
}

func NewRedis(client redis.Cmdable, ttl, retryWait time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retryWait <= 0 {
		retryWait = 25 * time.Millisecond
	}
	return &Redis{
		client:    client,
		ttl:       ttl,
		retryWait: retryWait,
		logger:    slog.Default(),
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retryWait)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Error("Failed to acquire lock", "key", key, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ok {
			stop := make(chan struct{})
			go r.keepAlive(redisKey, token, stop)
			return r.unlockFunc(redisKey, token, stop), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// keepAlive renews the lease until stop is closed or the lease is lost.
func (r *Redis) keepAlive(redisKey, token string, stop <-chan struct{}) {
	interval := max(r.ttl/3, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		renewed, err := renewScript.Run(ctx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			r.logger.Warn("Failed to renew lock lease", "key", redisKey, "error", err)
		case renewed == 0:
			r.logger.Error("Lock lease lost before release", "key", redisKey)
			return
		}
	}
}

func (r *Redis) unlockFunc(redisKey, token string, stop chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)

			// The request context may already be cancelled; release regardless.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("Failed to release lock, it will expire", "key", redisKey, "error", err)
			}
		})
	}
}
