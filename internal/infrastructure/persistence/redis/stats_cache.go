package redis

import (
	"context"
	"errors"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/circuitbreaker"
	"github.com/edusmart/progress-engine/pkg/logger"
	"github.com/edusmart/progress-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN STATS CACHE
// Кэш проекции доменной статистики. Redis здесь строго необязателен:
// промах, таймаут или открытый circuit breaker приводят к пересчёту из
// журнала событий, а не к ошибке запроса.
// ══════════════════════════════════════════════════════════════════════════════

// StatsCache implements the query layer's DomainStatsCache on Redis, guarded
// by a circuit breaker so a struggling Redis degrades reads instead of
// failing them.
type StatsCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
}

// NewStatsCache creates a new StatsCache.
func NewStatsCache(cache *Cache, log *logger.Logger) *StatsCache {
	return &StatsCache{
		cache: cache,
		breaker: circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("cache circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
		retrier: retry.CacheRetrier(),
	}
}

// Get returns the cached statistics or shared.ErrNotFound on a miss.
// Breaker-open and transport errors are normalized to shared.ErrNotFound as
// well: from the caller's point of view both just mean "recompute".
func (s *StatsCache) Get(ctx context.Context, userID learning.UserID) ([]learning.DomainStatistics, error) {
	var stats []learning.DomainStatistics

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			err := s.cache.Get(ctx, StatsKey(userID.String()), &stats)
			if errors.Is(err, ErrCacheMiss) {
				return retry.Permanent(err)
			}
			return err
		})
	})
	if err != nil {
		if errors.Is(err, ErrCacheMiss) || errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapError("cache", "get_stats", shared.ErrStoreUnavailable, "stats cache read", err)
	}

	return stats, nil
}

// Set stores the statistics with the standard stats TTL.
func (s *StatsCache) Set(ctx context.Context, userID learning.UserID, stats []learning.DomainStatistics) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, StatsKey(userID.String()), stats, TTLStatsCache)
	})
}

// Invalidate drops the user's cached statistics.
func (s *StatsCache) Invalidate(ctx context.Context, userID learning.UserID) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Delete(ctx, StatsKey(userID.String()))
	})
}
