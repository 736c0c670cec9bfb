// Package storage defines the key/value persistence surface shared by the
// credential, session and bookmark services.
//
// Every value is written as a whole under a single key: the services do a
// read-modify-write of the entire structure on each mutation.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Keys of the persisted storage surface.
const (
	KeyUsers     = "users"         // [[email, {name, password}], ...]
	KeyUser      = "user"          // {name, email} of the active identity
	KeyBookmarks = "userBookMarks" // [[email, [BookmarkEntry, ...]], ...]
)

// Backend is a flat key/value store scoped to one profile.
type Backend interface {
	// Get returns the raw value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Stamped is implemented by backends that record when each key was last written.
type Stamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// LoadJSON decodes the value under key into v. It reports false, leaving v
// untouched, when the key is absent.
func LoadJSON(ctx context.Context, b Backend, key string, v any) (bool, error) {
	data, ok, err := b.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key, replacing any previous value.
func SaveJSON(ctx context.Context, b Backend, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := b.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
