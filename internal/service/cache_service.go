package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

// Cache keys of the aggregates kept in Redis.
const (
	CacheKeyFinance   = "finance:ledger"
	CacheKeyDashboard = "dash:admin"
	cacheKeyCatalog   = "courses:catalog"
)

// Mutation names a class of write that stales cached aggregates.
type Mutation string

const (
	MutationEnrollment  Mutation = "enrollment"
	MutationTransaction Mutation = "transaction"
	MutationExpense     Mutation = "expense"
	MutationCourse      Mutation = "course"
	MutationProfile     Mutation = "profile"
)

// invalidationTable maps each mutation to the key patterns it stales. Course
// writes reach the ledger because course price and title feed enrollment
// recipes.
var invalidationTable = map[Mutation][]string{
	MutationEnrollment:  {CacheKeyFinance, CacheKeyDashboard},
	MutationTransaction: {CacheKeyFinance, CacheKeyDashboard},
	MutationExpense:     {CacheKeyFinance, CacheKeyDashboard},
	MutationCourse:      {cacheKeyCatalog + "*", CacheKeyFinance, CacheKeyDashboard},
	MutationProfile:     {CacheKeyDashboard},
}

// InvalidationPatterns returns the key patterns dropped after m.
func InvalidationPatterns(m Mutation) []string {
	patterns := invalidationTable[m]
	out := make([]string, len(patterns))
	copy(out, patterns)
	return out
}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true on a hit. Read
// failures are logged and reported as misses.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Set stores the value in cache. Failures are logged only.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateFor drops every aggregate staled by m. The write has already
// committed, so failures are logged and the TTL bounds staleness.
func (s *CacheService) InvalidateFor(ctx context.Context, m Mutation) {
	if !s.Enabled() {
		return
	}
	for _, pattern := range invalidationTable[m] {
		_ = s.Invalidate(ctx, pattern)
	}
}
