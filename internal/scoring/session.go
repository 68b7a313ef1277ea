package scoring

import "detective-quiz-service/internal/domain"

// ScoreSession scores every answer of a finished session in order and
// accumulates the session totals. The result is handed to the stats merge
// and never mutated afterwards.
func ScoreSession(gameID, userID string, answers []domain.Answer) domain.SessionResult {
	result := domain.SessionResult{
		GameID:  gameID,
		UserID:  userID,
		Answers: make([]domain.ScoredAnswer, 0, len(answers)),
	}
	for _, answer := range answers {
		points := Compute(answer.IsCorrect, answer.ResponseTimeMs, answer.Difficulty)
		result.Answers = append(result.Answers, domain.ScoredAnswer{Answer: answer, Points: points})
		result.TotalScore += points.Total
		result.TotalCount++
		if answer.IsCorrect {
			result.CorrectCount++
		}
		if answer.ResponseTimeMs > 0 {
			result.TotalTimeMs += answer.ResponseTimeMs
		}
	}
	return result
}
