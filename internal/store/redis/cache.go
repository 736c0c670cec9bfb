package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is the default TTL for cached repository lookups (1 hour)
const DefaultCacheTTL = time.Hour

// CacheRepository stores a full name -> repository lookup in cache
func (s *Store) CacheRepository(ctx context.Context, fullName string, repo *domain.Repository, ttl time.Duration) error {
	data, err := json.Marshal(repo)
	if err != nil {
		return fmt.Errorf("failed to marshal repository: %w", err)
	}
	if err := s.client.Set(ctx, CacheKey(fullName), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache repository: %w", err)
	}
	return nil
}

// GetCachedRepository retrieves a cached lookup. A cache miss returns (nil, nil).
func (s *Store) GetCachedRepository(ctx context.Context, fullName string) (*domain.Repository, error) {
	data, err := s.client.Get(ctx, CacheKey(fullName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached repository: %w", err)
	}

	var repo domain.Repository
	if err := json.Unmarshal(data, &repo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached repository: %w", err)
	}
	return &repo, nil
}

// InvalidateRepository removes a cached lookup
func (s *Store) InvalidateRepository(ctx context.Context, fullName string) error {
	if err := s.client.Del(ctx, CacheKey(fullName)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// FlushCache removes all cached lookups
func (s *Store) FlushCache(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixCache+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}
