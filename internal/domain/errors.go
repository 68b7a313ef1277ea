package domain

import "errors"

var (
	// ErrUserNotFound is returned when no stats record exists for a user.
	ErrUserNotFound = errors.New("user stats not found")
	// ErrEntryNotFound is returned when a user has no leaderboard entry for a period.
	ErrEntryNotFound = errors.New("leaderboard entry not found")
	// ErrUnknownPeriod indicates a period outside day/week/month/all.
	ErrUnknownPeriod = errors.New("unknown leaderboard period")
	// ErrWriteConflict indicates a stats update lost a race; callers may retry once.
	ErrWriteConflict = errors.New("stats update conflict")
)
