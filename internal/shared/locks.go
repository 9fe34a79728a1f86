package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld indicates another run already holds the lock.
var ErrLockHeld = errors.New("lock already held")

// SyncLockKey builds the redis key serializing sync runs for one config.
func SyncLockKey(configID int64) string {
	return fmt.Sprintf("woocommerce:config:%d:sync", configID)
}

// Lock is a best-effort redis mutex. Two overlapping sync runs against the
// same config would both miss each other's already-imported checks, so runs
// must be serialized.
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock builds a lock for key with the given expiry.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, token: uuid.NewString(), ttl: ttl}
}

// Acquire takes the lock or returns ErrLockHeld.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("shared: acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release frees the lock if this instance still owns it.
func (l *Lock) Release(ctx context.Context) error {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	return l.client.Eval(ctx, script, []string{l.key}, l.token).Err()
}
