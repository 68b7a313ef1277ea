package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"detective-quiz-service/internal/domain"
)

func TestStatsStoreUpdateAndLoad(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()

	if _, err := store.Load(ctx, "u1"); err != domain.ErrUserNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	updated, err := store.Update(ctx, "u1", func(s domain.UserStats) domain.UserStats {
		s.TotalScore = 100
		return s
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalScore != 100 || updated.UserID != "u1" {
		t.Fatalf("unexpected record %+v", updated)
	}

	loaded, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TotalScore != 100 {
		t.Fatalf("expected persisted score 100, got %d", loaded.TotalScore)
	}
}

func TestStatsStoreSerializesPerUser(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "u1", func(s domain.UserStats) domain.UserStats {
				s.TotalScore += 100
				return s
			})
		}()
	}
	wg.Wait()

	stats, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stats.TotalScore != workers*100 {
		t.Fatalf("lost update: expected %d, got %d", workers*100, stats.TotalScore)
	}
}

func TestStatsStoreListActiveSince(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()
	now := time.Now()

	seed := func(userID string, score int, visit time.Time) {
		_, _ = store.Update(ctx, userID, func(s domain.UserStats) domain.UserStats {
			s.TotalScore = score
			s.LastVisit = visit
			return s
		})
	}
	seed("u1", 300, now)
	seed("u2", 200, now.Add(-48*time.Hour))
	seed("u3", 300, now)

	all, err := store.ListActiveSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
	// Equal scores break ties by user id ascending.
	if all[0].UserID != "u1" || all[1].UserID != "u3" || all[2].UserID != "u2" {
		t.Fatalf("unexpected order: %s %s %s", all[0].UserID, all[1].UserID, all[2].UserID)
	}

	recent, err := store.ListActiveSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent users, got %d", len(recent))
	}
}
