package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var ErrLockNotConfigured = errors.New("lock client not configured")

// Lease identifies one successful acquisition. Only its holder can release it.
type Lease struct {
	Key   string
	Token string
}

// Locker is a single-instance redis lock, enough to keep one wizard from
// submitting twice across replicas.
type Locker struct {
	client *redis.Client
	prefix string
	script *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		prefix: "academy:lock:",
		script: redis.NewScript(lockReleaseScript),
	}
}

// TryLock returns ok=false without error when someone else holds key.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	if l == nil || l.client == nil {
		return Lease{}, false, ErrLockNotConfigured
	}
	if key == "" {
		return Lease{}, false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return Lease{}, false, errors.New("lock ttl must be positive")
	}

	lease := Lease{Key: l.prefix + key, Token: uuid.NewString()}
	ok, err := l.client.SetNX(ctx, lease.Key, lease.Token, ttl).Result()
	if err != nil {
		return Lease{}, false, err
	}
	if !ok {
		return Lease{}, false, nil
	}
	return lease, true, nil
}

// Release is a no-op for a zero lease or a lease that already expired.
func (l *Locker) Release(ctx context.Context, lease Lease) error {
	if l == nil || l.client == nil {
		return nil
	}
	if lease.Key == "" || lease.Token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{lease.Key}, lease.Token).Err()
}
