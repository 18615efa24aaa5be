package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/ratelimit"
	"github.com/smallbiznis/academy/internal/wizard/domain"
)

const (
	keyWizardState  = "academy:wizard:%s"
	keyWizardSubmit = "wizard:%s:submit"

	maxUpdateAttempts = 5
	submitLockTTL     = 30 * time.Second
)

// Redis shares wizard states across replicas. Updates use WATCH/MULTI so two
// concurrent writers never lose each other's change.
type Redis struct {
	client *redis.Client
	locker *ratelimit.Locker
	clock  clock.Clock
	ttl    func() time.Duration

	mu     sync.Mutex
	leases map[string]ratelimit.Lease
}

func NewRedis(client *redis.Client, locker *ratelimit.Locker, clk clock.Clock, ttl func() time.Duration) *Redis {
	return &Redis{
		client: client,
		locker: locker,
		clock:  clk,
		ttl:    ttl,
		leases: make(map[string]ratelimit.Lease),
	}
}

func (r *Redis) key(id string) string {
	return fmt.Sprintf(keyWizardState, id)
}

func (r *Redis) Create(ctx context.Context, state domain.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(state.ID), payload, r.ttl()).Err()
}

func (r *Redis) Get(ctx context.Context, id string) (domain.State, error) {
	payload, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.State{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.State{}, err
	}
	return decodeState(payload)
}

func (r *Redis) Update(ctx context.Context, id string, fn func(*domain.State) error) (domain.State, error) {
	key := r.key(id)
	var updated domain.State

	txf := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		state, err := decodeState(payload)
		if err != nil {
			return err
		}
		if err := fn(&state); err != nil {
			return err
		}
		state.UpdatedAt = r.clock.Now()

		next, err := json.Marshal(state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl())
			return nil
		})
		if err != nil {
			return err
		}
		updated = state
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.State{}, err
		}
		return updated, nil
	}
	return domain.State{}, fmt.Errorf("wizard %s: too much contention", id)
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *Redis) TryBeginSubmit(ctx context.Context, id string) (bool, error) {
	lease, ok, err := r.locker.TryLock(ctx, fmt.Sprintf(keyWizardSubmit, id), submitLockTTL)
	if err != nil || !ok {
		return false, err
	}

	r.mu.Lock()
	r.leases[id] = lease
	r.mu.Unlock()
	return true, nil
}

func (r *Redis) EndSubmit(ctx context.Context, id string) error {
	r.mu.Lock()
	lease, ok := r.leases[id]
	delete(r.leases, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return r.locker.Release(ctx, lease)
}

func decodeState(payload []byte) (domain.State, error) {
	var state domain.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return domain.State{}, fmt.Errorf("decode wizard state: %w", err)
	}
	return state, nil
}
