package progression

import (
	"time"

	"detective-quiz-service/internal/domain"
)

type achievementRule struct {
	id          string
	name        string
	description string
	qualifies   func(domain.UserStats) bool
}

// achievementRules are independent predicates; evaluation order does not
// affect which rules fire.
var achievementRules = []achievementRule{
	{
		id:          "first_case",
		name:        "First Case",
		description: "Complete your first investigation",
		qualifies:   func(s domain.UserStats) bool { return s.Investigations >= 1 },
	},
	{
		id:          "rookie",
		name:        "Rookie",
		description: "Complete 5 investigations",
		qualifies:   func(s domain.UserStats) bool { return s.Investigations >= 5 },
	},
	{
		id:          "expert",
		name:        "Expert",
		description: "Complete 50 investigations",
		qualifies:   func(s domain.UserStats) bool { return s.Investigations >= 50 },
	},
	{
		id:          "sharp_eye",
		name:        "Sharp Eye",
		description: "Keep 80% accuracy over at least 10 investigations",
		qualifies:   func(s domain.UserStats) bool { return s.Accuracy >= 80 && s.Investigations >= 10 },
	},
	{
		id:          "serial_detective",
		name:        "Serial Detective",
		description: "Solve 5 perfect cases in a row",
		qualifies:   func(s domain.UserStats) bool { return s.WinStreak >= 5 },
	},
	{
		id:          "maniac",
		name:        "Maniac",
		description: "Earn 1000 total points",
		qualifies:   func(s domain.UserStats) bool { return s.TotalScore >= 1000 },
	},
}

// EvaluateAchievements returns the achievements newly unlocked by the given
// stats. Rules already present in stats.Achievements never fire again, so
// re-evaluating the same stats yields nothing.
func EvaluateAchievements(stats domain.UserStats, now time.Time) []domain.Achievement {
	var unlocked []domain.Achievement
	for _, rule := range achievementRules {
		if stats.HasAchievement(rule.id) {
			continue
		}
		if !rule.qualifies(stats) {
			continue
		}
		unlocked = append(unlocked, domain.Achievement{
			ID:          rule.id,
			Name:        rule.name,
			Description: rule.description,
			UnlockedAt:  now,
		})
	}
	return unlocked
}
