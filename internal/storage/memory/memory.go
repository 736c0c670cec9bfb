package memory

import (
	"context"
	"sync"
	"time"
)

// Backend keeps values in process memory. Nothing survives a restart.
// It is used by tests and by GITMARK_STORAGE=memory.
type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte    // key -> raw value
	stamps map[string]time.Time // key -> time of its last Set
}

// New creates an empty memory backend
func New() *Backend {
	return &Backend{
		values: make(map[string][]byte),
		stamps: make(map[string]time.Time),
	}
}

// Get returns a copy of the value stored under key
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set replaces the value stored under key
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	b.values[key] = v
	b.stamps[key] = time.Now()
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (b *Backend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	delete(b.stamps, key)
	return nil
}

func (b *Backend) Ping(context.Context) error { return nil }

func (b *Backend) Close() error { return nil }

// UpdatedAt returns when key was last written
func (b *Backend) UpdatedAt(_ context.Context, key string) (time.Time, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ts, ok := b.stamps[key]
	return ts, ok, nil
}
