package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"detective-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// StatsRepository persists cumulative user stats in Postgres.
// Update runs inside a transaction with a row lock, so concurrent merges for
// the same user serialize at the database instead of racing load-then-save.
type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

const statsColumns = `user_id, display_name, investigations, solved_cases, total_questions,
	total_score, win_streak, max_win_streak, accuracy, rank, achievements, last_visit`

func (r *StatsRepository) Update(ctx context.Context, userID string, apply func(domain.UserStats) domain.UserStats) (domain.UserStats, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("begin stats update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return domain.UserStats{}, fmt.Errorf("ensure stats row: %w", err)
	}

	row := tx.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_id=$1 FOR UPDATE`, userID)
	stats, err := scanStats(row)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("lock stats row: %w", err)
	}

	updated := apply(stats)

	achievements, err := json.Marshal(updated.Achievements)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("marshal achievements: %w", err)
	}
	if updated.Achievements == nil {
		achievements = []byte(`[]`)
	}

	_, err = tx.Exec(ctx, `UPDATE user_stats SET
			display_name=$2, investigations=$3, solved_cases=$4, total_questions=$5,
			total_score=$6, win_streak=$7, max_win_streak=$8, accuracy=$9, rank=$10,
			achievements=$11, last_visit=$12
		WHERE user_id=$1`,
		userID, updated.DisplayName, updated.Investigations, updated.SolvedCases,
		updated.TotalQuestions, updated.TotalScore, updated.WinStreak, updated.MaxWinStreak,
		updated.Accuracy, string(updated.Rank), achievements, updated.LastVisit)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("write stats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.UserStats{}, fmt.Errorf("commit stats update: %w", err)
	}
	return updated, nil
}

func (r *StatsRepository) Load(ctx context.Context, userID string) (domain.UserStats, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_id=$1`, userID)
	stats, err := scanStats(row)
	if err == pgx.ErrNoRows {
		return domain.UserStats{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

func (r *StatsRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]domain.UserStats, error) {
	query := `SELECT ` + statsColumns + ` FROM user_stats`
	args := []interface{}{}
	if !cutoff.IsZero() {
		query += ` WHERE last_visit >= $1`
		args = append(args, cutoff)
	}
	query += ` ORDER BY total_score DESC, user_id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.UserStats
	for rows.Next() {
		record, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats = append(stats, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func scanStats(row pgx.Row) (domain.UserStats, error) {
	var stats domain.UserStats
	var rank string
	var achievements []byte
	err := row.Scan(&stats.UserID, &stats.DisplayName, &stats.Investigations, &stats.SolvedCases,
		&stats.TotalQuestions, &stats.TotalScore, &stats.WinStreak, &stats.MaxWinStreak,
		&stats.Accuracy, &rank, &achievements, &stats.LastVisit)
	if err != nil {
		return domain.UserStats{}, err
	}
	stats.Rank = domain.Rank(rank)
	if len(achievements) > 0 {
		if err := json.Unmarshal(achievements, &stats.Achievements); err != nil {
			return domain.UserStats{}, fmt.Errorf("unmarshal achievements: %w", err)
		}
	}
	return stats, nil
}
