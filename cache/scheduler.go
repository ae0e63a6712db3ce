/*
scheduler.go - Periodic sync of the pending queue

PURPOSE:
  Calls Cache.SyncEntries on a fixed interval so queued entries reach the
  SyncProvider without a user pressing "sync".

DESIGN:
  - Runs one background goroutine with a ticker
  - Syncs once immediately on Start
  - Deferred or failed syncs are logged; the queue is kept by the cache

USAGE:
  s := cache.NewScheduler(c, time.Minute, logger)
  s.Start()
  defer s.Stop()
*/
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/model"
)

// Scheduler periodically syncs a Cache.
type Scheduler struct {
	Cache    *Cache
	Interval time.Duration

	logger *zap.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(c *Cache, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{Cache: c, Interval: interval, logger: logger}
}

// Start begins syncing. A non-positive interval disables the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.logger.Info("sync scheduler disabled")
		return
	}
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("sync scheduler started", zap.Duration("interval", s.Interval))
}

// Stop halts the scheduler and waits for an in-flight sync to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.logger.Info("sync scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.syncOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	pending := s.Cache.PendingCount()
	if pending == 0 {
		return
	}
	err := s.Cache.SyncEntries(ctx)
	switch {
	case err == nil:
		s.logger.Info("pending entries synced", zap.Int("count", pending))
	case errors.Is(err, model.ErrSyncDeferred):
		s.logger.Info("sync deferred, will retry", zap.Int("pending", pending))
	case ctx.Err() != nil:
		// shutting down
	default:
		s.logger.Warn("scheduled sync failed", zap.Error(err))
	}
}
