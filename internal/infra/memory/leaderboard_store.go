package memory

import (
	"context"
	"sync"
	"time"

	"detective-quiz-service/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardRepository.
// ReplaceSnapshot swaps the whole slice for a period under the lock, so
// readers always see either the old snapshot or the new one, never a mix.
type LeaderboardStore struct {
	mu        sync.RWMutex
	snapshots map[domain.Period][]domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{snapshots: make(map[domain.Period][]domain.LeaderboardEntry)}
}

func (s *LeaderboardStore) ReplaceSnapshot(ctx context.Context, period domain.Period, entries []domain.LeaderboardEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := make([]domain.LeaderboardEntry, len(entries))
	copy(snapshot, entries)
	s.mu.Lock()
	s.snapshots[period] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *LeaderboardStore) TopEntries(ctx context.Context, period domain.Period, limit, offset int) ([]domain.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snapshot := s.snapshots[period]
	s.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(snapshot) {
		return []domain.LeaderboardEntry{}, nil
	}
	end := len(snapshot)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := make([]domain.LeaderboardEntry, end-offset)
	copy(page, snapshot[offset:end])
	return page, nil
}

func (s *LeaderboardStore) EntryFor(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LeaderboardEntry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.snapshots[period] {
		if entry.UserID == userID {
			return entry, nil
		}
	}
	return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
}

func (s *LeaderboardStore) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for period, snapshot := range s.snapshots {
		kept := snapshot[:0:0]
		for _, entry := range snapshot {
			if entry.UpdatedAt.Before(olderThan) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		s.snapshots[period] = kept
	}
	return removed, nil
}
