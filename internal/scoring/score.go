package scoring

import (
	"math"

	"detective-quiz-service/internal/domain"
)

const (
	basePoints        = 100
	timeBonusWindowMs = 15000
	timeBonusMax      = 50
	fastBonusCutoffMs = 3000
	fastBonus         = 10
	rapidCutoffMs     = 1500
	rapidBonus        = 15
)

// Compute derives the point breakdown for a single answer. Incorrect answers
// earn nothing. Negative response times clamp to zero and an unrecognized
// difficulty simply earns no bonus, so the function never fails.
func Compute(isCorrect bool, responseTimeMs int, difficulty domain.Difficulty) domain.PointBreakdown {
	if !isCorrect {
		return domain.PointBreakdown{}
	}
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}

	breakdown := domain.PointBreakdown{Base: basePoints}

	if responseTimeMs <= timeBonusWindowMs {
		ratio := float64(responseTimeMs) / float64(timeBonusWindowMs)
		speedMultiplier := math.Pow(1-ratio, 1.5)
		bonus := int(math.Round(timeBonusMax * speedMultiplier))
		// The two fast-answer bumps stack: a sub-1500ms answer gets both.
		if responseTimeMs < fastBonusCutoffMs {
			bonus += fastBonus
		}
		if responseTimeMs < rapidCutoffMs {
			bonus += rapidBonus
		}
		breakdown.TimeBonus = bonus
	}

	switch difficulty {
	case domain.DifficultyMedium:
		breakdown.DifficultyBonus = 25
	case domain.DifficultyHard:
		breakdown.DifficultyBonus = 50
	}

	// Mutually exclusive, hardest tier wins.
	switch {
	case difficulty == domain.DifficultyHard && responseTimeMs < 5000:
		breakdown.PerfectionBonus = 25
	case difficulty == domain.DifficultyMedium && responseTimeMs < 3000:
		breakdown.PerfectionBonus = 15
	case difficulty == domain.DifficultyEasy && responseTimeMs < 2000:
		breakdown.PerfectionBonus = 10
	}

	breakdown.Total = breakdown.Base + breakdown.TimeBonus + breakdown.DifficultyBonus + breakdown.PerfectionBonus
	return breakdown
}
