package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"detective-quiz-service/internal/domain"
)

// StatsStore is an in-memory implementation of app.StatsRepository.
// Each user's record carries its own mutex, so merges for the same user are
// serialized while merges for different users run in parallel.
type StatsStore struct {
	mu      sync.RWMutex
	records map[string]*statsRecord
}

type statsRecord struct {
	mu    sync.Mutex
	stats domain.UserStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{records: make(map[string]*statsRecord)}
}

func (s *StatsStore) record(userID string) *statsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		rec = &statsRecord{stats: domain.UserStats{UserID: userID, Rank: domain.RankTrainee}}
		s.records[userID] = rec
	}
	return rec
}

func (s *StatsStore) Update(ctx context.Context, userID string, apply func(domain.UserStats) domain.UserStats) (domain.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserStats{}, err
	}
	rec := s.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.stats = apply(cloneStats(rec.stats))
	return cloneStats(rec.stats), nil
}

func (s *StatsStore) Load(ctx context.Context, userID string) (domain.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserStats{}, err
	}
	s.mu.RLock()
	rec, ok := s.records[userID]
	s.mu.RUnlock()
	if !ok {
		return domain.UserStats{}, domain.ErrUserNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return cloneStats(rec.stats), nil
}

func (s *StatsStore) ListActiveSince(ctx context.Context, cutoff time.Time) ([]domain.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	records := make([]*statsRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	stats := make([]domain.UserStats, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		snapshot := cloneStats(rec.stats)
		rec.mu.Unlock()
		if !cutoff.IsZero() && snapshot.LastVisit.Before(cutoff) {
			continue
		}
		stats = append(stats, snapshot)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalScore != stats[j].TotalScore {
			return stats[i].TotalScore > stats[j].TotalScore
		}
		return stats[i].UserID < stats[j].UserID
	})
	return stats, nil
}

func cloneStats(stats domain.UserStats) domain.UserStats {
	if len(stats.Achievements) > 0 {
		achievements := make([]domain.Achievement, len(stats.Achievements))
		copy(achievements, stats.Achievements)
		stats.Achievements = achievements
	}
	return stats
}
