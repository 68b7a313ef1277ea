package domain

import (
	"fmt"
	"time"
)

// Difficulty classifies a question. Unknown values earn no bonus.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Answer is the scoring signal for a single question, produced once per
// question and consumed immediately by the score calculator.
type Answer struct {
	IsCorrect      bool       `json:"isCorrect"`
	ResponseTimeMs int        `json:"responseTimeMs"`
	Difficulty     Difficulty `json:"difficulty"`
}

// PointBreakdown itemizes the points awarded for one answer.
// Total is always the sum of the other fields.
type PointBreakdown struct {
	Base            int `json:"base"`
	TimeBonus       int `json:"timeBonus"`
	DifficultyBonus int `json:"difficultyBonus"`
	PerfectionBonus int `json:"perfectionBonus"`
	Total           int `json:"total"`
}

// ScoredAnswer pairs an answer with its computed breakdown.
type ScoredAnswer struct {
	Answer Answer         `json:"answer"`
	Points PointBreakdown `json:"points"`
}

// SessionResult captures the totals of one finished game session.
// It is never mutated after creation.
type SessionResult struct {
	GameID       string         `json:"gameId"`
	UserID       string         `json:"userId"`
	Answers      []ScoredAnswer `json:"answers"`
	TotalScore   int            `json:"totalScore"`
	CorrectCount int            `json:"correctCount"`
	TotalCount   int            `json:"totalCount"`
	TotalTimeMs  int            `json:"totalTimeMs"`
}

// Rank is a progression label derived purely from cumulative score.
type Rank string

const (
	RankTrainee         Rank = "Trainee"
	RankJuniorDetective Rank = "Junior Detective"
	RankDetective       Rank = "Detective"
	RankInspector       Rank = "Inspector"
	RankChiefInspector  Rank = "Chief Inspector"
	RankMasterDetective Rank = "Master Detective"
)

// Achievement is a one-time milestone. Once unlocked it is never removed.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// UserStats is the cumulative per-user record. It is mutated only through
// the merge path; accuracy and rank are derived, never set independently.
type UserStats struct {
	UserID         string        `json:"userId"`
	DisplayName    string        `json:"displayName"`
	Investigations int           `json:"investigations"`
	SolvedCases    int           `json:"solvedCases"`
	TotalQuestions int           `json:"totalQuestions"`
	TotalScore     int           `json:"totalScore"`
	WinStreak      int           `json:"winStreak"`
	MaxWinStreak   int           `json:"maxWinStreak"`
	Accuracy       int           `json:"accuracy"`
	Rank           Rank          `json:"rank"`
	Achievements   []Achievement `json:"achievements"`
	LastVisit      time.Time     `json:"lastVisit"`
}

// HasAchievement reports whether the achievement id is already unlocked.
func (s UserStats) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Period is a leaderboard time window with an independently rebuilt snapshot.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Periods lists every leaderboard window in rebuild order.
func Periods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodAll}
}

// ParsePeriod validates a raw period string.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return Period(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, raw)
}

// WindowStart returns the recency cutoff for the period relative to now.
// The zero time means no cutoff (the all-time window).
func (p Period) WindowStart(now time.Time) (time.Time, error) {
	switch p {
	case PeriodDay:
		return now.Add(-24 * time.Hour), nil
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), nil
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), nil
	case PeriodAll:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(p))
}

// LeaderboardEntry is one row of a period snapshot. Rows for a period are
// replaced wholesale on each rebuild, never patched individually.
type LeaderboardEntry struct {
	UserID         string    `json:"userId"`
	DisplayName    string    `json:"displayName"`
	Score          int       `json:"score"`
	Rank           int       `json:"rank"`
	TierLabel      string    `json:"tierLabel"`
	Period         Period    `json:"period"`
	Investigations int       `json:"investigations"`
	Accuracy       int       `json:"accuracy"`
	WinStreak      int       `json:"winStreak"`
	LastGameDate   time.Time `json:"lastGameDate"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Leaderboard is the ordered snapshot for one period.
type Leaderboard struct {
	Period    Period             `json:"period"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
