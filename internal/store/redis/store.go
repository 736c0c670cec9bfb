package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Store is a storage.Backend on top of Redis. All keys are scoped to a profile,
// so several local profiles can share one Redis database.
type Store struct {
	client  *redis.Client
	profile string
}

// NewStore creates a new Redis store for profile
func NewStore(client *redis.Client, profile string) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{
		client:  client,
		profile: profile,
	}
}

// Get retrieves the raw value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, ProfileKey(s.profile, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key without expiration
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, ProfileKey(s.profile, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, ProfileKey(s.profile, key)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func normalizeFullName(fullName string) string {
	return strings.ToLower(strings.TrimSpace(fullName))
}
