// Package cache is a small in-process key/value cache with per-entry TTL.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemory is safe for concurrent use. Expired entries are dropped lazily on
// access and in bulk by Sweep.
type InMemory[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time
}

func NewInMemory[V any]() *InMemory[V] {
	return &InMemory[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (c *InMemory[V]) WithClock(now func() time.Time) *InMemory[V] {
	c.now = now
	return c
}

// Set stores value under key. A ttl <= 0 keeps the entry until it is deleted.
func (c *InMemory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
	return nil
}

func (c *InMemory[V]) Get(_ context.Context, key string) (V, bool, error) {
	var zero V

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false, nil
	}
	if e.expired(c.now()) {
		c.remove(key, e)
		return zero, false, nil
	}
	return e.value, true, nil
}

func (c *InMemory[V]) Has(ctx context.Context, key string) bool {
	_, ok, _ := c.Get(ctx, key)
	return ok
}

func (c *InMemory[V]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (c *InMemory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *InMemory[V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// remove deletes key only if it still holds the expired entry seen by the caller.
func (c *InMemory[V]) remove(key string, seen entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(seen.expiresAt) {
		delete(c.items, key)
	}
}
