package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReconcileLockKey guards the reconciliation pass across processes.
const ReconcileLockKey = "gemtracker:reconcile:lock"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a tracking.TickLease backed by SET NX PX.
type RedisLease struct {
	rdb   *redis.Client
	key   string
	token string
}

// NewRedisLease creates a lease with a token unique to this process.
func NewRedisLease(rdb *redis.Client) *RedisLease {
	return &RedisLease{rdb: rdb, key: ReconcileLockKey, token: uuid.NewString()}
}

// TryAcquire takes the lock for ttl if nobody else holds it.
func (l *RedisLease) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release gives the lock back if it is still ours.
func (l *RedisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
