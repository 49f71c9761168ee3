package entities

import "time"

// UserStatsID is the fixed primary key of the single user_stats row.
const UserStatsID int64 = 1

// UserStats aggregates the reading habit. Exactly one row exists once the
// schema has been created; it is only ever updated.
type UserStats struct {
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	TotalBooksRead  int        `json:"total_books_read"`
	TotalPagesRead  int        `json:"total_pages_read"`
	LastReadingDate *time.Time `json:"last_reading_date,omitempty"`
}
