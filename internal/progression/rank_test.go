package progression_test

import (
	"testing"

	"detective-quiz-service/internal/domain"
	"detective-quiz-service/internal/progression"
)

func TestRankThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  domain.Rank
	}{
		{0, domain.RankTrainee},
		{299, domain.RankTrainee},
		{300, domain.RankJuniorDetective},
		{799, domain.RankJuniorDetective},
		{800, domain.RankDetective},
		{1999, domain.RankDetective},
		{2000, domain.RankInspector},
		{4999, domain.RankInspector},
		{5000, domain.RankChiefInspector},
		{9999, domain.RankChiefInspector},
		{10000, domain.RankMasterDetective},
		{123456, domain.RankMasterDetective},
	}
	for _, c := range cases {
		if got := progression.RankFor(c.score); got != c.want {
			t.Fatalf("score %d: expected %s, got %s", c.score, c.want, got)
		}
	}
}

func TestRankNeverDecreasesWithScore(t *testing.T) {
	order := map[domain.Rank]int{
		domain.RankTrainee:         0,
		domain.RankJuniorDetective: 1,
		domain.RankDetective:       2,
		domain.RankInspector:       3,
		domain.RankChiefInspector:  4,
		domain.RankMasterDetective: 5,
	}
	prev := progression.RankFor(0)
	for score := 1; score <= 12000; score += 7 {
		rank := progression.RankFor(score)
		if order[rank] < order[prev] {
			t.Fatalf("rank dropped from %s to %s at score %d", prev, rank, score)
		}
		prev = rank
	}
}
