package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"detective-quiz-service/internal/app"
	"detective-quiz-service/internal/domain"
	"detective-quiz-service/internal/infra/memory"
)

func TestRecordSessionMergesStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStatsStore()
	service := app.NewStatsServiceWithClock(store, time.Second, func() time.Time { return now })

	answers := []domain.Answer{
		{IsCorrect: true, ResponseTimeMs: 1200, Difficulty: domain.DifficultyHard},
		{IsCorrect: true, ResponseTimeMs: 2500, Difficulty: domain.DifficultyEasy},
	}
	stats, result, unlocked, err := service.RecordSession(ctx, "u1", "Ada", "game-1", answers)
	if err != nil {
		t.Fatalf("record session: %v", err)
	}
	if result.CorrectCount != 2 || result.TotalCount != 2 {
		t.Fatalf("unexpected session result %+v", result)
	}
	if stats.Investigations != 1 || stats.TotalScore != result.TotalScore {
		t.Fatalf("merge not applied: %+v", stats)
	}
	if stats.WinStreak != 1 {
		t.Fatalf("perfect session should start a streak, got %d", stats.WinStreak)
	}
	if stats.DisplayName != "Ada" {
		t.Fatalf("display name not stored: %+v", stats)
	}
	if !stats.LastVisit.Equal(now) {
		t.Fatalf("lastVisit not stamped: %v", stats.LastVisit)
	}
	if len(unlocked) != 1 || unlocked[0].ID != "first_case" {
		t.Fatalf("expected first_case unlock, got %+v", unlocked)
	}
}

func TestRecordSessionConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStatsStore()
	service := app.NewStatsService(store, time.Second)

	// One correct medium answer past every bonus window scores exactly 125.
	answers := []domain.Answer{{IsCorrect: true, ResponseTimeMs: 16000, Difficulty: domain.DifficultyMedium}}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, _, err := service.RecordSession(ctx, "u1", "", "game", answers); err != nil {
				t.Errorf("record session: %v", err)
			}
		}()
	}
	wg.Wait()

	stats, err := service.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalScore != 250 {
		t.Fatalf("lost update: expected 250, got %d", stats.TotalScore)
	}
	if stats.Investigations != 2 {
		t.Fatalf("expected 2 investigations, got %d", stats.Investigations)
	}
}

func TestRecordSessionRetriesConflictOnce(t *testing.T) {
	ctx := context.Background()
	repo := &conflictingStats{inner: memory.NewStatsStore(), failures: 1}
	service := app.NewStatsService(repo, time.Second)

	stats, _, _, err := service.RecordSession(ctx, "u1", "", "game", []domain.Answer{
		{IsCorrect: true, ResponseTimeMs: 16000, Difficulty: domain.DifficultyEasy},
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if stats.Investigations != 1 {
		t.Fatalf("merge applied %d times", stats.Investigations)
	}

	repo.failures = 2
	if _, _, _, err := service.RecordSession(ctx, "u2", "", "game", nil); !errors.Is(err, domain.ErrWriteConflict) {
		t.Fatalf("expected surfaced conflict after retry, got %v", err)
	}
}

type conflictingStats struct {
	inner    *memory.StatsStore
	failures int
}

func (c *conflictingStats) Update(ctx context.Context, userID string, apply func(domain.UserStats) domain.UserStats) (domain.UserStats, error) {
	if c.failures > 0 {
		c.failures--
		return domain.UserStats{}, domain.ErrWriteConflict
	}
	return c.inner.Update(ctx, userID, apply)
}

func (c *conflictingStats) Load(ctx context.Context, userID string) (domain.UserStats, error) {
	return c.inner.Load(ctx, userID)
}

func (c *conflictingStats) ListActiveSince(ctx context.Context, cutoff time.Time) ([]domain.UserStats, error) {
	return c.inner.ListActiveSince(ctx, cutoff)
}
