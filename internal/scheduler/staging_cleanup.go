// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/cardbridge/internal/staging"
)

// StagingCleanupConfig controls the periodic eviction of staged cards
// whose "add" button was never pressed.
type StagingCleanupConfig struct {
	Enabled  bool
	Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	TTL      time.Duration
}

// StagingCleanupScheduler evicts expired staged cards on a cron schedule.
// Without it the in-memory store would grow forever on abandoned cards.
type StagingCleanupScheduler struct {
	store  *staging.Store
	config StagingCleanupConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewStagingCleanupScheduler creates a new scheduler instance.
func NewStagingCleanupScheduler(store *staging.Store, config StagingCleanupConfig) *StagingCleanupScheduler {
	return &StagingCleanupScheduler{
		store:  store,
		config: config,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if cleanup is enabled.
func (s *StagingCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Staging cleanup scheduler: disabled")
		return nil
	}

	if s.config.TTL <= 0 {
		log.Printf("Staging cleanup scheduler: TTL not configured, skipping")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule staging cleanup '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Staging cleanup scheduler: started with schedule '%s', TTL %v",
		s.config.Schedule, s.config.TTL)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *StagingCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Staging cleanup scheduler: stopped")
}

// RunNow triggers an eviction sweep outside the schedule.
func (s *StagingCleanupScheduler) RunNow() int {
	return s.store.EvictOlderThan(s.config.TTL)
}

func (s *StagingCleanupScheduler) runCleanup() {
	evicted := s.store.EvictOlderThan(s.config.TTL)
	if evicted > 0 {
		log.Printf("Staging cleanup: evicted %d expired cards (older than %v)", evicted, s.config.TTL)
	}
}
