package progression

import "detective-quiz-service/internal/domain"

// rankThresholds is ordered highest-first; the first inclusive lower bound
// that matches wins.
var rankThresholds = []struct {
	minScore int
	rank     domain.Rank
}{
	{10000, domain.RankMasterDetective},
	{5000, domain.RankChiefInspector},
	{2000, domain.RankInspector},
	{800, domain.RankDetective},
	{300, domain.RankJuniorDetective},
	{0, domain.RankTrainee},
}

// RankFor maps a cumulative score to its rank tier. Monotonic: a higher
// score never yields a lower tier.
func RankFor(totalScore int) domain.Rank {
	for _, threshold := range rankThresholds {
		if totalScore >= threshold.minScore {
			return threshold.rank
		}
	}
	return domain.RankTrainee
}
