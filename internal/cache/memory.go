package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxEntries = 256

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a bounded in-process store. The least recently used entry is
// evicted when full, and expired entries are dropped on read.
// It is safe for concurrent use.
type Memory struct {
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// NewMemory creates a store holding at most maxEntries values.
func NewMemory(maxEntries int) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	entries, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries.Add(key, entry{value: value, expiresAt: m.now().Add(ttl)})
	return nil
}

// Len reports how many entries are held, expired or not.
func (m *Memory) Len() int {
	return m.entries.Len()
}
