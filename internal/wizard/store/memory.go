package store

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/wizard/domain"
)

type memoryEntry struct {
	state     domain.State
	expiresAt time.Time
}

// Memory keeps states in process. It is the default backend.
type Memory struct {
	clock clock.Clock
	ttl   func() time.Duration

	mu         sync.Mutex
	entries    map[string]memoryEntry
	submitting map[string]struct{}
}

func NewMemory(clk clock.Clock, ttl func() time.Duration) *Memory {
	return &Memory{
		clock:      clk,
		ttl:        ttl,
		entries:    make(map[string]memoryEntry),
		submitting: make(map[string]struct{}),
	}
}

func (m *Memory) Create(_ context.Context, state domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweep(now)
	m.entries[state.ID] = memoryEntry{state: state.Clone(), expiresAt: now.Add(m.ttl())}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(id)
	if !ok {
		return domain.State{}, domain.ErrNotFound
	}
	return entry.state.Clone(), nil
}

func (m *Memory) Update(_ context.Context, id string, fn func(*domain.State) error) (domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(id)
	if !ok {
		return domain.State{}, domain.ErrNotFound
	}

	next := entry.state.Clone()
	if err := fn(&next); err != nil {
		return domain.State{}, err
	}

	now := m.clock.Now()
	next.UpdatedAt = now
	m.entries[id] = memoryEntry{state: next.Clone(), expiresAt: now.Add(m.ttl())}
	return next, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	delete(m.submitting, id)
	return nil
}

func (m *Memory) TryBeginSubmit(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.submitting[id]; busy {
		return false, nil
	}
	m.submitting[id] = struct{}{}
	return true, nil
}

func (m *Memory) EndSubmit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.submitting, id)
	return nil
}

// Len is the number of live states.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(m.clock.Now())
	return len(m.entries)
}

// lookup must be called with mu held.
func (m *Memory) lookup(id string) (memoryEntry, bool) {
	entry, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.clock.Now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *Memory) sweep(now time.Time) {
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}
