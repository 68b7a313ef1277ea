package memory

import (
	"context"
	"testing"
	"time"

	"detective-quiz-service/internal/domain"
)

func TestLeaderboardStoreReplaceAndRead(t *testing.T) {
	store := NewLeaderboardStore()
	ctx := context.Background()

	entries := []domain.LeaderboardEntry{
		{UserID: "u1", Score: 300, Rank: 1, Period: domain.PeriodDay, UpdatedAt: time.Now()},
		{UserID: "u2", Score: 200, Rank: 2, Period: domain.PeriodDay, UpdatedAt: time.Now()},
	}
	if err := store.ReplaceSnapshot(ctx, domain.PeriodDay, entries); err != nil {
		t.Fatalf("replace: %v", err)
	}

	top, err := store.TopEntries(ctx, domain.PeriodDay, 10, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "u1" {
		t.Fatalf("unexpected snapshot %+v", top)
	}

	page, err := store.TopEntries(ctx, domain.PeriodDay, 1, 1)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 1 || page[0].UserID != "u2" {
		t.Fatalf("expected second page to hold u2, got %+v", page)
	}

	entry, err := store.EntryFor(ctx, domain.PeriodDay, "u2")
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Rank != 2 {
		t.Fatalf("expected rank 2, got %d", entry.Rank)
	}
	if _, err := store.EntryFor(ctx, domain.PeriodDay, "ghost"); err != domain.ErrEntryNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	// Replacing swaps the whole period.
	if err := store.ReplaceSnapshot(ctx, domain.PeriodDay, entries[:1]); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	if _, err := store.EntryFor(ctx, domain.PeriodDay, "u2"); err != domain.ErrEntryNotFound {
		t.Fatalf("expected u2 gone after replace, got %v", err)
	}
}

func TestLeaderboardStoreDeleteStale(t *testing.T) {
	store := NewLeaderboardStore()
	ctx := context.Background()
	now := time.Now()

	_ = store.ReplaceSnapshot(ctx, domain.PeriodDay, []domain.LeaderboardEntry{
		{UserID: "u1", Rank: 1, UpdatedAt: now},
	})
	_ = store.ReplaceSnapshot(ctx, domain.PeriodWeek, []domain.LeaderboardEntry{
		{UserID: "u1", Rank: 1, UpdatedAt: now.Add(-48 * time.Hour)},
	})

	removed, err := store.DeleteStale(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	week, _ := store.TopEntries(ctx, domain.PeriodWeek, 10, 0)
	if len(week) != 0 {
		t.Fatalf("expected stale week snapshot emptied, got %+v", week)
	}
	day, _ := store.TopEntries(ctx, domain.PeriodDay, 10, 0)
	if len(day) != 1 {
		t.Fatalf("fresh snapshot must survive, got %+v", day)
	}
}
