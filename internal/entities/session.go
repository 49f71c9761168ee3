package entities

import "time"

// ReadingSession is a single sitting with a book.
type ReadingSession struct {
	ID          string         `json:"id"`
	BookID      string         `json:"book_id"`
	PagesRead   int            `json:"pages_read"`
	TimeSpent   *time.Duration `json:"time_spent,omitempty"` // Stored as milliseconds
	SessionDate time.Time      `json:"session_date"`
}
