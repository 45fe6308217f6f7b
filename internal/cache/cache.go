// Package cache holds the short-lived aggregate caches shared by the admin
// dashboards: an in-process store and a Redis-backed one.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Keys of cached aggregates.
const (
	KeyAdminStats    = "stats:admin"
	KeyEnquiryCounts = "stats:enquiries:"
)

// MaxTTL bounds how long an aggregate may lag behind writes.
const MaxTTL = time.Minute

// Store caches JSON-encodable values.
type Store interface {
	// Get decodes the value at key into target and reports whether it was found.
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is the in-process Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, target interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, target); err != nil {
		return false, nil //nolint:nilerr // a corrupt entry is a miss
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = entry{data: data, expiresAt: m.now().Add(clampTTL(ttl))}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
	return nil
}
