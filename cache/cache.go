// Package cache holds recent search results in memory.
//
// The cache is small and bounded: when full, the entry written longest ago is
// evicted, and entries expire a fixed time after they were written. Writing an
// existing key replaces its value and moves it to the newest position.
package cache

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/cartwise/core"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = 5 * time.Minute
)

type entry[V any] struct {
	key      core.ID
	value    V
	storedAt time.Time
}

// Cache is a bounded FIFO cache with a fixed TTL. It is safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    *list.List // front is oldest
	items    map[core.ID]*list.Element
}

// Option configures a Cache.
type Option func(*config) error

type config struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// WithCapacity sets the maximum number of entries.
// Default is 100.
func WithCapacity(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, n)
		}
		c.capacity = n
		return nil
	}
}

// WithTTL sets how long an entry stays valid after it is written.
// Default is 5 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidConfig, ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidConfig)
		}
		c.now = now
		return nil
	}
}

// New creates an empty cache.
func New[V any](opts ...Option) (*Cache[V], error) {
	cfg := config{capacity: DefaultCapacity, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Cache[V]{
		capacity: cfg.capacity,
		ttl:      cfg.ttl,
		now:      cfg.now,
		order:    list.New(),
		items:    make(map[core.ID]*list.Element, cfg.capacity),
	}, nil
}

// Get returns the value stored under key if it has not expired.
// Expired entries are dropped on access.
func (c *Cache[V]) Get(key core.ID) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.remove(el)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, evicting the oldest entries while the cache is full.
func (c *Cache[V]) Set(key core.ID, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	for c.order.Len() >= c.capacity {
		c.remove(c.order.Front())
	}
	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, storedAt: c.now()})
}

// Delete drops key if present.
func (c *Cache[V]) Delete(key core.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Len returns the number of stored entries, including expired ones not yet dropped.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.items)
}

func (c *Cache[V]) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry[V])
	delete(c.items, e.key)
}

// Key derives the cache key of a search. The query is lower-cased and its
// whitespace collapsed so trivially different spellings share an entry.
func Key(query string, page int, market core.Market, zipcode string) core.ID {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return core.IDFromContent(fmt.Sprintf("%s\x00%d\x00%s\x00%s", q, page, market, strings.TrimSpace(zipcode)))
}
