package github

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

// Lookup resolves "owner/repo" to a repository, or (nil, nil) when it does not exist.
type Lookup interface {
	GetRepository(ctx context.Context, fullName string) (*domain.Repository, error)
}

// RepositoryCache stores lookups for a while. A miss is (nil, nil).
type RepositoryCache interface {
	GetCachedRepository(ctx context.Context, fullName string) (*domain.Repository, error)
	CacheRepository(ctx context.Context, fullName string, repo *domain.Repository, ttl time.Duration) error
}

// CachedLookup serves repository lookups from a cache, falling through to
// next on a miss. Cache failures are logged and otherwise ignored.
// Not-found answers are never cached.
type CachedLookup struct {
	next   Lookup
	cache  RepositoryCache
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedLookup wraps next with cache.
func NewCachedLookup(next Lookup, cache RepositoryCache, ttl time.Duration, log logger.Logger) *CachedLookup {
	return &CachedLookup{next: next, cache: cache, ttl: ttl, logger: log}
}

func (l *CachedLookup) GetRepository(ctx context.Context, fullName string) (*domain.Repository, error) {
	cached, err := l.cache.GetCachedRepository(ctx, fullName)
	if err != nil {
		l.logger.Warn("repository cache read failed",
			logger.String("full_name", fullName),
			logger.Error(err))
	}
	if cached != nil {
		l.logger.Debug("repository cache hit", logger.String("full_name", fullName))
		return cached, nil
	}

	repo, err := l.next.GetRepository(ctx, fullName)
	if err != nil || repo == nil {
		return repo, err
	}

	// Best effort
	if err := l.cache.CacheRepository(ctx, fullName, repo, l.ttl); err != nil {
		l.logger.Warn("repository cache write failed",
			logger.String("full_name", fullName),
			logger.Error(err))
	}
	return repo, nil
}
