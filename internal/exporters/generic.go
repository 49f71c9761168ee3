package exporters

import "github.com/mrlokans/readtracker/internal/entities"

// BookExporter writes books and their loaded quotes somewhere outside the database.
type BookExporter interface {
	Export(books []entities.Book) (ExportResult, error)
}

type ExportResult struct {
	BooksProcessed  int `json:"books_processed"`
	QuotesProcessed int `json:"quotes_processed"`
	BooksFailed     int `json:"books_failed"`
}
