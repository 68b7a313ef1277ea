package postgres

import (
	"context"
	"fmt"
	"time"

	"detective-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// LeaderboardRepository persists period snapshots in Postgres. The
// delete-then-insert runs in one transaction, so readers see either the old
// snapshot or the new one, never a mix.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

const entryColumns = `user_id, display_name, score, rank, tier_label, period,
	investigations, accuracy, win_streak, last_game_date, updated_at`

func (r *LeaderboardRepository) ReplaceSnapshot(ctx context.Context, period domain.Period, entries []domain.LeaderboardEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard_entries WHERE period=$1`, string(period)); err != nil {
		return fmt.Errorf("clear %s snapshot: %w", period, err)
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(`INSERT INTO leaderboard_entries (`+entryColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			entry.UserID, entry.DisplayName, entry.Score, entry.Rank, entry.TierLabel,
			string(period), entry.Investigations, entry.Accuracy, entry.WinStreak,
			entry.LastGameDate, entry.UpdatedAt)
	}
	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert %s entries: %w", period, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("flush %s entries: %w", period, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s snapshot: %w", period, err)
	}
	return nil
}

func (r *LeaderboardRepository) TopEntries(ctx context.Context, period domain.Period, limit, offset int) ([]domain.LeaderboardEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM leaderboard_entries WHERE period=$1 ORDER BY rank ASC`
	args := []interface{}{string(period)}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s snapshot: %w", period, err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s snapshot: %w", period, err)
	}
	return entries, nil
}

func (r *LeaderboardRepository) EntryFor(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM leaderboard_entries WHERE period=$1 AND user_id=$2`,
		string(period), userID)
	entry, err := scanEntry(row)
	if err == pgx.ErrNoRows {
		return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
	}
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("load entry: %w", err)
	}
	return entry, nil
}

func (r *LeaderboardRepository) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leaderboard_entries WHERE updated_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete stale entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (domain.LeaderboardEntry, error) {
	var entry domain.LeaderboardEntry
	var period string
	err := row.Scan(&entry.UserID, &entry.DisplayName, &entry.Score, &entry.Rank, &entry.TierLabel,
		&period, &entry.Investigations, &entry.Accuracy, &entry.WinStreak,
		&entry.LastGameDate, &entry.UpdatedAt)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	entry.Period = domain.Period(period)
	return entry, nil
}
