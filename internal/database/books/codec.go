package books

import (
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

// Codec maps books to rows of the books table.
type Codec struct{}

var _ store.Codec[entities.Book, string] = Codec{}

func (Codec) Table() string                { return "books" }
func (Codec) KeyColumn() string            { return "id" }
func (Codec) ID(book entities.Book) string { return book.ID }

func (Codec) Encode(book entities.Book) store.Record {
	return store.Record{
		"id":          book.ID,
		"title":       book.Title,
		"author":      book.Author,
		"cover_url":   store.Nullable(book.CoverURL),
		"total_pages": book.TotalPages,
		"pages_read":  book.PagesRead,
		"status":      string(book.Status),
		"created_at":  store.ToMillis(book.CreatedAt),
		"finished_at": store.OptionalToMillis(book.FinishedAt),
	}
}

// Decode fails on an unknown status string.
func (Codec) Decode(rec store.Record) (entities.Book, error) {
	var (
		book entities.Book
		err  error
	)
	if book.ID, err = store.String(rec, "id"); err != nil {
		return entities.Book{}, err
	}
	if book.Title, err = store.String(rec, "title"); err != nil {
		return entities.Book{}, err
	}
	if book.Author, err = store.String(rec, "author"); err != nil {
		return entities.Book{}, err
	}
	if book.CoverURL, err = store.OptionalString(rec, "cover_url"); err != nil {
		return entities.Book{}, err
	}
	if book.TotalPages, err = store.Int(rec, "total_pages"); err != nil {
		return entities.Book{}, err
	}
	if book.PagesRead, err = store.Int(rec, "pages_read"); err != nil {
		return entities.Book{}, err
	}

	status, err := store.String(rec, "status")
	if err != nil {
		return entities.Book{}, err
	}
	if book.Status, err = entities.ParseBookStatus(status); err != nil {
		return entities.Book{}, err
	}

	if book.CreatedAt, err = store.Millis(rec, "created_at"); err != nil {
		return entities.Book{}, err
	}
	if book.FinishedAt, err = store.OptionalMillis(rec, "finished_at"); err != nil {
		return entities.Book{}, err
	}
	return book, nil
}
