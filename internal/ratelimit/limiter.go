package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/academy/internal/config"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate_limited")

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limit is a token bucket shape: PerMinute refill with Burst capacity.
type Limit struct {
	PerMinute int
	Burst     int
}

func (l Limit) perSecond() float64 {
	return float64(l.PerMinute) / 60
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// NewLimiter shares buckets through redis when a client exists and keeps
// them in process otherwise.
func NewLimiter(cfg config.Config, client *redis.Client) Limiter {
	limit := Limit{PerMinute: cfg.PublicRatePerMinute, Burst: cfg.PublicRateBurst}
	if limit.PerMinute <= 0 {
		limit.PerMinute = 120
	}
	if limit.Burst <= 0 {
		limit.Burst = 20
	}
	if client != nil {
		return NewRedisLimiter(client, limit)
	}
	return NewLocalLimiter(limit)
}

type LocalLimiter struct {
	limit Limit
	idle  time.Duration

	mu        sync.Mutex
	limiters  map[string]*localEntry
	lastSweep time.Time
	now       func() time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(limit Limit) *LocalLimiter {
	return &LocalLimiter{
		limit:    limit,
		idle:     10 * time.Minute,
		limiters: make(map[string]*localEntry),
		now:      time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	entry, ok := l.limiters[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(l.limit.perSecond()), l.limit.Burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	decision := Decision{Limit: l.limit.Burst}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		decision.RetryAfter = delay
	} else {
		decision.Allowed = true
	}
	decision.Remaining = int(entry.limiter.TokensAt(now))
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	return decision, nil
}

func (l *LocalLimiter) evict(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.limiters, key)
		}
	}
}

type RedisLimiter struct {
	bucket *TokenBucket
	limit  Limit
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit Limit) *RedisLimiter {
	return &RedisLimiter{
		bucket: NewTokenBucket(client),
		limit:  limit,
		prefix: "academy:ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return l.bucket.Allow(ctx, l.prefix+key, l.limit.perSecond(), l.limit.Burst)
}
