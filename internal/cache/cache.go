package cache

import (
	"sync"
	"time"
)

// Entry is a cached payload with the time it was stored.
// Entries are never modified after Put; a refresh stores a new Entry.
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
}

// TTLCache is a concurrency-safe in-memory key/value cache with a fixed TTL.
// Expired entries are treated as absent on Get and are only removed when the
// size cap forces a sweep.
type TTLCache[T any] struct {
	mu sync.RWMutex

	data map[string]Entry[T]

	ttl        time.Duration
	maxEntries int // 0 = unlimited
	now        func() time.Time
}

// Option configures a TTLCache.
type Option func(*options)

type options struct {
	now        func() time.Time
	maxEntries int
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxEntries caps the number of stored keys. If n is <= 0, it is treated as unlimited.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// New creates a TTLCache whose entries expire ttl after they were stored.
func New[T any](ttl time.Duration, opts ...Option) *TTLCache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTLCache[T]{
		data:       make(map[string]Entry[T]),
		ttl:        ttl,
		maxEntries: o.maxEntries,
		now:        o.now,
	}
}

// Get returns the value for key if it exists and has not outlived the TTL.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	e, ok := c.data[key]
	if !ok || c.expired(e, c.now()) {
		return zero, false
	}
	return e.Value, true
}

// Put stores value under key, replacing any previous entry.
func (c *TTLCache[T]) Put(key string, value T) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.makeRoom(now)
	}
	c.data[key] = Entry[T]{Value: value, StoredAt: now}
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *TTLCache[T]) expired(e Entry[T], now time.Time) bool {
	return now.Sub(e.StoredAt) > c.ttl
}

// makeRoom drops expired entries, then the oldest one if still at capacity.
// Caller must hold the write lock.
func (c *TTLCache[T]) makeRoom(now time.Time) {
	for k, e := range c.data {
		if c.expired(e, now) {
			delete(c.data, k)
		}
	}
	if len(c.data) < c.maxEntries {
		return
	}

	var (
		oldestKey string
		oldestAt  time.Time
		first     = true
	)
	for k, e := range c.data {
		if first || e.StoredAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, e.StoredAt, false
		}
	}
	delete(c.data, oldestKey)
}
