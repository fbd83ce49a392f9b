package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-process cache when no limit is given.
const DefaultMaxEntries = 512

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process LRU Cache used when no Redis is configured.
// Expired entries are swept on every Set, and the least recently used entry
// is evicted once maxEntries is reached.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List // front is most recently used
	items      map[string]*list.Element
	now        func() time.Time
}

// NewMemory creates a cache holding at most maxEntries values.
// A non-positive maxEntries uses DefaultMaxEntries.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, found := m.items[key]
	if !found {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if e.expired(m.now()) {
		m.remove(el)
		return nil, false, nil
	}
	m.order.MoveToFront(el)
	return e.value, true, nil
}

// Set stores value under key. A non-positive ttl never expires.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	m.sweep(now)

	if el, found := m.items[key]; found {
		e := el.Value.(*entry)
		e.value, e.expiresAt = value, expiresAt
		m.order.MoveToFront(el)
		return nil
	}

	for m.order.Len() >= m.maxEntries {
		m.remove(m.order.Back())
	}
	m.items[key] = m.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) sweep(now time.Time) {
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

func (m *Memory) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*entry).key)
}
