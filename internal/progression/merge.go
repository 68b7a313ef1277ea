package progression

import (
	"math"
	"time"

	"detective-quiz-service/internal/domain"
)

// Merge folds a finished session into the cumulative stats and returns the
// updated record plus any achievements unlocked by it. The caller is
// responsible for applying the result as a single per-user update.
func Merge(stats domain.UserStats, result domain.SessionResult, now time.Time) (domain.UserStats, []domain.Achievement) {
	stats.Investigations++
	stats.SolvedCases += result.CorrectCount
	stats.TotalQuestions += result.TotalCount
	stats.TotalScore += result.TotalScore

	// A session with no answers carries no streak verdict either way.
	if result.TotalCount > 0 {
		if result.CorrectCount == result.TotalCount {
			stats.WinStreak++
		} else {
			stats.WinStreak = 0
		}
	}
	if stats.WinStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.WinStreak
	}

	if stats.TotalQuestions > 0 {
		stats.Accuracy = int(math.Round(float64(stats.SolvedCases) / float64(stats.TotalQuestions) * 100))
	} else {
		stats.Accuracy = 0
	}

	stats.Rank = RankFor(stats.TotalScore)

	unlocked := EvaluateAchievements(stats, now)
	if len(unlocked) > 0 {
		merged := make([]domain.Achievement, 0, len(stats.Achievements)+len(unlocked))
		merged = append(merged, stats.Achievements...)
		merged = append(merged, unlocked...)
		stats.Achievements = merged
	}

	stats.LastVisit = now
	return stats, unlocked
}
