package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/themis/pkg/service/evalcache"
	"github.com/secmon-lab/themis/pkg/utils/async"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// CacheSweepWorker periodically reclaims expired evaluation cache entries.
// Readers already ignore expired entries, so the sweep only bounds storage
// growth between invalidations.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type CacheSweepWorker struct {
	cache    *evalcache.Cache
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCacheSweepWorker creates a worker sweeping the cache at the given interval
func NewCacheSweepWorker(cache *evalcache.Cache, interval time.Duration) *CacheSweepWorker {
	return &CacheSweepWorker{
		cache:    cache,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop without blocking server startup
func (w *CacheSweepWorker) Start(ctx context.Context) error {
	logging.Default().Info("cache sweep worker starting",
		"interval", w.interval.String())

	async.Dispatch(ctx, w.run)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *CacheSweepWorker) Stop() {
	logging.Default().Info("cache sweep worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("cache sweep worker stopped")
}

func (w *CacheSweepWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("cache sweep worker context cancelled")
			return
		}
	}
}

func (w *CacheSweepWorker) sweep(ctx context.Context) {
	removed, err := w.cache.Sweep(ctx)
	if err != nil {
		logging.Default().Error("cache sweep failed (will retry next interval)",
			"error", err.Error())
		return
	}

	if removed > 0 {
		logging.Default().Debug("cache sweep removed expired entries",
			"removed", removed)
	}
}
