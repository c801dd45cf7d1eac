package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marsmission/rover-status-service/internal/models"
	"github.com/marsmission/rover-status-service/internal/observability"
)

// RoverFetcher is implemented by the service layer to assemble rover data for
// a sol. Used by CacheWarmer to avoid a circular dependency on the service
// package.
type RoverFetcher interface {
	GetRoverData(ctx context.Context, sol int) (models.RoverData, error)
}

// CacheWarmer warms the cache by prefetching responses for a list of sols
// (typically the default sol and other frequently scrubbed mission days).
type CacheWarmer struct {
	fetcher RoverFetcher
	logger  *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer that uses the given fetcher and logger.
func NewCacheWarmer(fetcher RoverFetcher, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{fetcher: fetcher, logger: logger}
}

// Warm assembles rover data for each sol concurrently, populating the cache
// via the fetcher. Returns an error if any sol failed (aggregated).
func (w *CacheWarmer) Warm(ctx context.Context, sols []int) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("sols", len(sols)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(sols))
	for _, sol := range sols {
		sol := sol
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.fetcher.GetRoverData(ctx, sol)
			if err != nil {
				errCh <- fmt.Errorf("warm sol %d: %w", sol, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("sols", len(sols)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, sols []int, interval time.Duration) error {
	if err := w.Warm(ctx, sols); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, sols); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
