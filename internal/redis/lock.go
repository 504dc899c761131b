package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("host lock not acquired")
)

// Locker serializes booking creation per host. Two guests racing for
// overlapping times on the same host cannot both enter the critical section;
// the storage layer's exclusion constraint remains the final arbiter for
// instances whose Redis view diverges.
type Locker interface {
	WithHostLock(ctx context.Context, hostID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisHostLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHostLocker creates a locker that uses a per host Redis key
func NewRedisHostLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisHostLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisHostLocker) WithHostLock(ctx context.Context, hostID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:host:%s", hostID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire host lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisHostLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release host lock: %w", err)
	}
	return nil
}
