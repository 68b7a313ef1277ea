package app

import (
	"context"
	"errors"
	"time"

	"detective-quiz-service/internal/domain"
	"detective-quiz-service/internal/progression"
	"detective-quiz-service/internal/scoring"
)

// StatsRepository abstracts how cumulative user stats are stored.
// Update must serialize concurrent calls for the same user: the apply
// function sees the current record and its return value replaces it as one
// atomic step. Implementations report lost races as domain.ErrWriteConflict.
type StatsRepository interface {
	Update(ctx context.Context, userID string, apply func(domain.UserStats) domain.UserStats) (domain.UserStats, error)
	Load(ctx context.Context, userID string) (domain.UserStats, error)
	// ListActiveSince returns stats for users whose last visit is at or after
	// the cutoff, ordered by total score descending with user id ascending as
	// tie-break. A zero cutoff returns everyone.
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]domain.UserStats, error)
}

// StatsService records finished sessions into cumulative user stats.
type StatsService struct {
	stats   StatsRepository
	timeout time.Duration
	now     func() time.Time
}

func NewStatsService(stats StatsRepository, timeout time.Duration) *StatsService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StatsService{stats: stats, timeout: timeout, now: time.Now}
}

// NewStatsServiceWithClock is test-only for deterministic timestamps.
func NewStatsServiceWithClock(stats StatsRepository, timeout time.Duration, now func() time.Time) *StatsService {
	s := NewStatsService(stats, timeout)
	s.now = now
	return s
}

// RecordSession scores a finished session and merges it into the user's
// stats as a single logical update. A write conflict is retried once with
// fresh state before being surfaced.
func (s *StatsService) RecordSession(ctx context.Context, userID, displayName, gameID string, answers []domain.Answer) (domain.UserStats, domain.SessionResult, []domain.Achievement, error) {
	result := scoring.ScoreSession(gameID, userID, answers)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var unlocked []domain.Achievement
	apply := func(stats domain.UserStats) domain.UserStats {
		if stats.UserID == "" {
			stats.UserID = userID
		}
		if displayName != "" {
			stats.DisplayName = displayName
		}
		var merged domain.UserStats
		merged, unlocked = progression.Merge(stats, result, s.now())
		return merged
	}

	updated, err := s.stats.Update(ctx, userID, apply)
	if errors.Is(err, domain.ErrWriteConflict) {
		updated, err = s.stats.Update(ctx, userID, apply)
	}
	if err != nil {
		return domain.UserStats{}, result, nil, err
	}
	return updated, result, unlocked, nil
}

// Stats returns the cumulative record for a user.
func (s *StatsService) Stats(ctx context.Context, userID string) (domain.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.stats.Load(ctx, userID)
}
