package entities

import (
	"fmt"
	"time"
)

type BookStatus string

const (
	BookStatusWant     BookStatus = "want"
	BookStatusReading  BookStatus = "reading"
	BookStatusFinished BookStatus = "finished"
)

// ParseBookStatus maps a stored status string back to a BookStatus.
// Any value outside the known set is an error.
func ParseBookStatus(s string) (BookStatus, error) {
	switch BookStatus(s) {
	case BookStatusWant, BookStatusReading, BookStatusFinished:
		return BookStatus(s), nil
	}
	return "", fmt.Errorf("unknown book status %q", s)
}

type Book struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	CoverURL   *string    `json:"cover_url,omitempty"`
	TotalPages int        `json:"total_pages"`
	PagesRead  int        `json:"pages_read"`
	Status     BookStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Populated only by lookups that explicitly load quotes.
	Quotes []Quote `json:"quotes,omitempty"`
}

// Progress returns the read fraction in [0, 1].
func (b Book) Progress() float64 {
	if b.TotalPages <= 0 {
		return 0
	}
	p := float64(b.PagesRead) / float64(b.TotalPages)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// IsFinished reports whether the book is marked finished or every page has been read.
// A book with no known page count is finished only by status.
func (b Book) IsFinished() bool {
	if b.Status == BookStatusFinished {
		return true
	}
	return b.TotalPages > 0 && b.PagesRead >= b.TotalPages
}
