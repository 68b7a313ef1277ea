package redis

import (
	"context"
	"testing"
	"time"

	"detective-quiz-service/internal/app"
	"detective-quiz-service/internal/domain"
	"detective-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLeaderboardCacheWritesThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &countingRepo{LeaderboardRepository: memory.NewLeaderboardStore()}
	cache := NewLeaderboardCache(client, source, time.Minute)

	ctx := context.Background()
	entries := []domain.LeaderboardEntry{
		{UserID: "u1", Score: 300, Rank: 1, Period: domain.PeriodDay, UpdatedAt: time.Now()},
		{UserID: "u2", Score: 200, Rank: 2, Period: domain.PeriodDay, UpdatedAt: time.Now()},
	}
	if err := cache.ReplaceSnapshot(ctx, domain.PeriodDay, entries); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !mr.Exists("leaderboard:snapshot:day") {
		t.Fatalf("expected snapshot key to be set")
	}

	// Reads are served from the cache, never the source.
	top, err := cache.TopEntries(ctx, domain.PeriodDay, 1, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].UserID != "u1" {
		t.Fatalf("unexpected page %+v", top)
	}
	entry, err := cache.EntryFor(ctx, domain.PeriodDay, "u2")
	if err != nil || entry.Rank != 2 {
		t.Fatalf("entry: %+v err=%v", entry, err)
	}
	if source.reads != 0 {
		t.Fatalf("expected cache hits only, source read %d times", source.reads)
	}
}

func TestLeaderboardCacheFallsBackToSource(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.NewLeaderboardStore()
	ctx := context.Background()
	_ = store.ReplaceSnapshot(ctx, domain.PeriodWeek, []domain.LeaderboardEntry{
		{UserID: "u1", Score: 100, Rank: 1, Period: domain.PeriodWeek, UpdatedAt: time.Now()},
	})
	source := &countingRepo{LeaderboardRepository: store}
	cache := NewLeaderboardCache(client, source, time.Minute)

	top, err := cache.TopEntries(ctx, domain.PeriodWeek, 10, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("expected source snapshot, got %+v", top)
	}
	if source.reads != 1 {
		t.Fatalf("expected one source read, got %d", source.reads)
	}

	// Second read is a cache hit.
	if _, err := cache.TopEntries(ctx, domain.PeriodWeek, 10, 0); err != nil {
		t.Fatalf("top again: %v", err)
	}
	if source.reads != 1 {
		t.Fatalf("expected cache hit, source reads %d", source.reads)
	}

	if _, err := cache.EntryFor(ctx, domain.PeriodWeek, "ghost"); err != domain.ErrEntryNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLeaderboardCacheDeleteStaleInvalidates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.NewLeaderboardStore()
	cache := NewLeaderboardCache(client, store, time.Minute)

	ctx := context.Background()
	stale := time.Now().Add(-48 * time.Hour)
	_ = cache.ReplaceSnapshot(ctx, domain.PeriodDay, []domain.LeaderboardEntry{
		{UserID: "u1", Rank: 1, UpdatedAt: stale},
	})

	removed, err := cache.DeleteStale(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if mr.Exists("leaderboard:snapshot:day") {
		t.Fatalf("expected cache key invalidated")
	}
}

type countingRepo struct {
	app.LeaderboardRepository
	reads int
}

func (c *countingRepo) TopEntries(ctx context.Context, period domain.Period, limit, offset int) ([]domain.LeaderboardEntry, error) {
	c.reads++
	return c.LeaderboardRepository.TopEntries(ctx, period, limit, offset)
}
