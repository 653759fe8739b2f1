package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// trendingLockName is the shared lock that keeps multiple server workers
// from refreshing the trending cache at the same time.
const trendingLockName = "trending_refresh"

type trendingRefresher interface {
	RefreshTrending(ctx context.Context) error
}

type lockProvider interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool)
}

// Service runs the nightly trending-cache refresh. The job is guarded by a
// distributed lock whose expiry exceeds the worst-case batch duration, so
// across all worker processes exactly one performs the work; the rest see
// contention and exit without side effects.
type Service struct {
	details  trendingRefresher
	locks    lockProvider
	cronSpec string
	lockTTL  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewService(details trendingRefresher, locks lockProvider, cronSpec string, lockTTL time.Duration) *Service {
	return &Service{
		details:  details,
		locks:    locks,
		cronSpec: cronSpec,
		lockTTL:  lockTTL,
	}
}

// Start schedules the refresh job. Idempotent.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cronSpec, func() {
		s.RunTrendingRefresh(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule trending refresh: %w", err)
	}
	c.Start()

	s.cron = c
	s.running = true
	log.Printf("[scheduler] started, trending cache refreshes on %q", s.cronSpec)
	return nil
}

// Stop halts scheduling and waits for a running job, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	select {
	case <-s.cron.Stop().Done():
		log.Printf("[scheduler] stopped gracefully")
	case <-ctx.Done():
		log.Printf("[scheduler] stopped (timeout waiting for running job)")
	}
	s.running = false
}

// RunTrendingRefresh performs one lock-guarded refresh. It returns true only
// when this worker actually held the lock and ran the job; false means
// another worker was mid-refresh (or the lock store was unreachable), which
// is a normal skip, not a failure; the next request falls through to a
// live fetch anyway.
func (s *Service) RunTrendingRefresh(ctx context.Context) bool {
	release, ok := s.locks.AcquireLock(ctx, trendingLockName, s.lockTTL)
	if !ok {
		log.Printf("[scheduler] trending refresh already in progress elsewhere, skipping")
		return false
	}
	defer release()

	log.Printf("[scheduler] trending refresh starting")
	if err := s.details.RefreshTrending(ctx); err != nil {
		log.Printf("[scheduler] trending refresh failed: %v", err)
		return true
	}
	log.Printf("[scheduler] trending refresh finished")
	return true
}
