package entities

import "time"

type Quote struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	Text       string    `json:"text"`
	PageNumber *int      `json:"page_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
