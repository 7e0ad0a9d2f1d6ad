package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a bounded in-process cache with per-key TTL and LRU eviction
type Memory struct {
	mu      sync.Mutex
	max     int
	entries map[string]*list.Element
	order   *list.List // front = most recent

	// now is a seam for tests
	now func() time.Time
}

type memEntry struct {
	key     string
	val     []byte
	expires time.Time // zero means no expiry
}

// NewMemory builds a memory cache holding at most max entries
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 4096
	}
	return &Memory{
		max:     max,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns the cached value if present and not expired
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	ent := el.Value.(*memEntry)
	if !ent.expires.IsZero() && m.now().After(ent.expires) {
		m.order.Remove(el)
		delete(m.entries, key)
		return nil, false, nil
	}
	m.order.MoveToFront(el)
	// copy so callers cannot mutate the cached bytes
	out := make([]byte, len(ent.val))
	copy(out, ent.val)
	return out, true, nil
}

// Set stores val under key for ttl; ttl <= 0 means no expiry
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}

	cp := make([]byte, len(val))
	copy(cp, val)

	if el, ok := m.entries[key]; ok {
		ent := el.Value.(*memEntry)
		ent.val = cp
		ent.expires = expires
		m.order.MoveToFront(el)
		return nil
	}

	m.entries[key] = m.order.PushFront(&memEntry{key: key, val: cp, expires: expires})
	for len(m.entries) > m.max {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memEntry).key)
	}
	return nil
}

// Delete removes key if present
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		m.order.Remove(el)
		delete(m.entries, key)
	}
	return nil
}

// Close is a no-op for the memory backend
func (m *Memory) Close() error { return nil }
