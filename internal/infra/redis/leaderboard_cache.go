package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"detective-quiz-service/internal/app"
	"detective-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LeaderboardCache decorates a LeaderboardRepository with a Redis snapshot
// cache. The full per-period snapshot is stored as JSON and paged locally;
// ReplaceSnapshot writes through so readers see the new ranking immediately.
// Cache misses fall back to the source behind a single-flight group.
type LeaderboardCache struct {
	client *redis.Client
	source app.LeaderboardRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, source app.LeaderboardRepository, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) ReplaceSnapshot(ctx context.Context, period domain.Period, entries []domain.LeaderboardEntry) error {
	if err := c.source.ReplaceSnapshot(ctx, period, entries); err != nil {
		return err
	}
	if data, err := json.Marshal(entries); err == nil {
		_ = c.client.Set(ctx, c.key(period), data, c.ttlWithJitter()).Err()
	} else {
		_ = c.client.Del(ctx, c.key(period)).Err()
	}
	return nil
}

func (c *LeaderboardCache) TopEntries(ctx context.Context, period domain.Period, limit, offset int) ([]domain.LeaderboardEntry, error) {
	snapshot, err := c.snapshot(ctx, period)
	if err != nil {
		return nil, err
	}
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
	return snapshot[offset:end], nil
}

func (c *LeaderboardCache) EntryFor(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error) {
	snapshot, err := c.snapshot(ctx, period)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	for _, entry := range snapshot {
		if entry.UserID == userID {
			return entry, nil
		}
	}
	return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
}

func (c *LeaderboardCache) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	removed, err := c.source.DeleteStale(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		for _, period := range domain.Periods() {
			_ = c.client.Del(ctx, c.key(period)).Err()
		}
	}
	return removed, nil
}

func (c *LeaderboardCache) snapshot(ctx context.Context, period domain.Period) ([]domain.LeaderboardEntry, error) {
	if entries, ok := c.cached(ctx, period); ok {
		return entries, nil
	}

	result, err, _ := c.sf.Do(string(period), func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if entries, ok := c.cached(ctx, period); ok {
			return entries, nil
		}
		entries, err := c.source.TopEntries(ctx, period, 0, 0)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(entries); err == nil {
			_ = c.client.Set(ctx, c.key(period), data, c.ttlWithJitter()).Err()
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (c *LeaderboardCache) cached(ctx context.Context, period domain.Period) ([]domain.LeaderboardEntry, bool) {
	data, err := c.client.Get(ctx, c.key(period)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) key(period domain.Period) string {
	return "leaderboard:snapshot:" + string(period)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
