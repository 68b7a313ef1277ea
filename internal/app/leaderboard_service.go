package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"detective-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LeaderboardRepository stores ranked snapshots per period.
// ReplaceSnapshot must swap the whole period atomically: readers never see a
// mix of old and new rows. TopEntries treats limit <= 0 as "no limit".
type LeaderboardRepository interface {
	ReplaceSnapshot(ctx context.Context, period domain.Period, entries []domain.LeaderboardEntry) error
	TopEntries(ctx context.Context, period domain.Period, limit, offset int) ([]domain.LeaderboardEntry, error)
	EntryFor(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error)
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// RebuildResult reports one period's outcome inside RebuildAll.
type RebuildResult struct {
	Count int
	Err   error
}

const (
	defaultTopLimit = 50
	maxTopLimit     = 100
)

// LeaderboardService rebuilds and serves ranked snapshots. Rebuilds of the
// same period coalesce through a single-flight group; different periods run
// independently.
type LeaderboardService struct {
	stats   StatsRepository
	entries LeaderboardRepository
	timeout time.Duration
	now     func() time.Time
	sf      singleflight.Group

	mu          sync.Mutex
	subscribers map[domain.Period]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardService(stats StatsRepository, entries LeaderboardRepository, timeout time.Duration) *LeaderboardService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LeaderboardService{
		stats:       stats,
		entries:     entries,
		timeout:     timeout,
		now:         time.Now,
		subscribers: make(map[domain.Period]map[chan domain.Leaderboard]struct{}),
	}
}

// NewLeaderboardServiceWithClock is test-only for deterministic timestamps.
func NewLeaderboardServiceWithClock(stats StatsRepository, entries LeaderboardRepository, timeout time.Duration, now func() time.Time) *LeaderboardService {
	s := NewLeaderboardService(stats, entries, timeout)
	s.now = now
	return s
}

// Rebuild recomputes the snapshot for one period and returns the number of
// entries written. Overlapping calls for the same period share one run.
func (s *LeaderboardService) Rebuild(ctx context.Context, period domain.Period) (int, error) {
	if _, err := domain.ParsePeriod(string(period)); err != nil {
		return 0, err
	}
	v, err, _ := s.sf.Do(string(period), func() (interface{}, error) {
		return s.rebuildOnce(ctx, period)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *LeaderboardService) rebuildOnce(ctx context.Context, period domain.Period) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	cutoff, err := period.WindowStart(now)
	if err != nil {
		return 0, err
	}

	stats, err := s.stats.ListActiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stats for %s: %w", period, err)
	}

	// Repositories already order by score; sort again so ranking never
	// depends on adapter behavior. Ties break by user id ascending.
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalScore != stats[j].TotalScore {
			return stats[i].TotalScore > stats[j].TotalScore
		}
		return stats[i].UserID < stats[j].UserID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(stats))
	for i, st := range stats {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:         st.UserID,
			DisplayName:    st.DisplayName,
			Score:          st.TotalScore,
			Rank:           i + 1,
			TierLabel:      string(st.Rank),
			Period:         period,
			Investigations: st.Investigations,
			Accuracy:       st.Accuracy,
			WinStreak:      st.WinStreak,
			LastGameDate:   st.LastVisit,
			UpdatedAt:      now,
		})
	}

	if err := s.entries.ReplaceSnapshot(ctx, period, entries); err != nil {
		return 0, fmt.Errorf("replace %s snapshot: %w", period, err)
	}

	s.broadcast(domain.Leaderboard{Period: period, Entries: entries, UpdatedAt: now})
	return len(entries), nil
}

// RebuildAll rebuilds every period concurrently. A failing period never
// aborts the others; each outcome is reported separately.
func (s *LeaderboardService) RebuildAll(ctx context.Context) map[domain.Period]RebuildResult {
	results := make(map[domain.Period]RebuildResult, len(domain.Periods()))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, period := range domain.Periods() {
		wg.Add(1)
		go func(period domain.Period) {
			defer wg.Done()
			count, err := s.Rebuild(ctx, period)
			mu.Lock()
			results[period] = RebuildResult{Count: count, Err: err}
			mu.Unlock()
		}(period)
	}
	wg.Wait()
	return results
}

// CleanupStale deletes entries whose snapshot has not been refreshed within
// maxAge, guarding against orphans from a period whose rebuild stopped.
func (s *LeaderboardService) CleanupStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.entries.DeleteStale(ctx, s.now().Add(-maxAge))
}

// Top returns a page of the period's snapshot ordered by rank.
func (s *LeaderboardService) Top(ctx context.Context, period domain.Period, limit, offset int) ([]domain.LeaderboardEntry, error) {
	if _, err := domain.ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.entries.TopEntries(ctx, period, limit, offset)
}

// Position returns one user's entry for a period, or domain.ErrEntryNotFound.
func (s *LeaderboardService) Position(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error) {
	if _, err := domain.ParsePeriod(string(period)); err != nil {
		return domain.LeaderboardEntry{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.entries.EntryFor(ctx, period, userID)
}

// Subscribe returns a channel that receives the period's snapshot after each
// completed rebuild, starting with the current one. The caller must invoke
// the cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, period domain.Period) (<-chan domain.Leaderboard, func(), error) {
	if _, err := domain.ParsePeriod(string(period)); err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	s.mu.Lock()
	if s.subscribers[period] == nil {
		s.subscribers[period] = make(map[chan domain.Leaderboard]struct{})
	}
	s.subscribers[period][ch] = struct{}{}
	s.mu.Unlock()

	if initial, err := s.Top(ctx, period, defaultTopLimit, 0); err == nil {
		ch <- domain.Leaderboard{Period: period, Entries: initial, UpdatedAt: s.now()}
	}

	cancel := func() {
		s.mu.Lock()
		if subs, ok := s.subscribers[period]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *LeaderboardService) broadcast(lb domain.Leaderboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[lb.Period] {
		select {
		case ch <- lb:
		default:
			// Drop the oldest update so a slow subscriber never blocks a
			// rebuild. The re-send stays non-blocking: a racing initial
			// snapshot may have refilled the buffer.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lb:
			default:
			}
		}
	}
}
