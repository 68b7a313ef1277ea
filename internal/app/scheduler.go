package app

import (
	"context"
	"log"
	"time"

	"detective-quiz-service/internal/domain"
)

// Scheduler drives periodic leaderboard rebuilds and stale-entry cleanup.
// The logger is injected so the core never touches process-wide state.
type Scheduler struct {
	leaderboard  *LeaderboardService
	interval     time.Duration
	cleanupEvery time.Duration
	staleAfter   time.Duration
	logger       *log.Logger
}

func NewScheduler(leaderboard *LeaderboardService, interval, cleanupEvery, staleAfter time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if cleanupEvery <= 0 {
		cleanupEvery = time.Hour
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &Scheduler{
		leaderboard:  leaderboard,
		interval:     interval,
		cleanupEvery: cleanupEvery,
		staleAfter:   staleAfter,
		logger:       logger,
	}
}

// Run blocks until the context is canceled, rebuilding all periods on each
// tick. An immediate rebuild runs at startup so reads never hit an empty
// snapshot longer than one aggregation pass.
func (s *Scheduler) Run(ctx context.Context) {
	s.rebuild(ctx)

	rebuildTicker := time.NewTicker(s.interval)
	defer rebuildTicker.Stop()
	cleanupTicker := time.NewTicker(s.cleanupEvery)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildTicker.C:
			s.rebuild(ctx)
		case <-cleanupTicker.C:
			removed, err := s.leaderboard.CleanupStale(ctx, s.staleAfter)
			if err != nil {
				s.logger.Printf("leaderboard cleanup failed: %v", err)
			} else if removed > 0 {
				s.logger.Printf("leaderboard cleanup removed %d stale entries", removed)
			}
		}
	}
}

func (s *Scheduler) rebuild(ctx context.Context) {
	results := s.leaderboard.RebuildAll(ctx)
	for _, period := range domain.Periods() {
		result := results[period]
		if result.Err != nil {
			s.logger.Printf("rebuild %s failed: %v", period, result.Err)
		}
	}
}
