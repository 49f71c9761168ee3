// Package books provides database operations for the reading list.
//
// The Repository embeds a generic store for the books table, so every CRUD
// and watch operation of store.Store is available directly, and adds status
// filtering, quote loading and progress tracking on top.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, found, err := repo.GetWithQuotes(ctx, id)
//	reading := repo.WatchByStatus(ctx, entities.BookStatusReading)
package books

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/readtracker/internal/database/quotes"
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

// Option customises a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for finish timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// Repository handles all book database operations.
type Repository struct {
	*store.Store[entities.Book, string]

	quotes *store.Store[entities.Quote, string]
	now    func() time.Time
}

// NewRepository creates a new books repository.
func NewRepository(conn store.Connector, opts ...Option) *Repository {
	r := &Repository{
		Store:  store.New[entities.Book, string](conn, Codec{}),
		quotes: store.New[entities.Quote, string](conn, quotes.Codec{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetByStatus returns the books with the given status, newest first.
func (r *Repository) GetByStatus(ctx context.Context, status entities.BookStatus) ([]entities.Book, error) {
	return r.Find(ctx, store.Query{
		Where: "status = ?",
		Args:  []any{string(status)},
		Order: "created_at DESC",
	})
}

// WatchByStatus streams the books with the given status. It is derived from
// WatchAll and updates whenever any book changes.
func (r *Repository) WatchByStatus(ctx context.Context, status entities.BookStatus) <-chan store.Snapshot[entities.Book] {
	return store.Filter(r.WatchAll(ctx), func(b entities.Book) bool {
		return b.Status == status
	})
}

// GetWithQuotes retrieves a book with its quotes, newest quote first.
func (r *Repository) GetWithQuotes(ctx context.Context, id string) (entities.Book, bool, error) {
	book, found, err := r.GetByID(ctx, id)
	if err != nil || !found {
		return book, found, err
	}

	bookQuotes, err := r.quotes.Find(ctx, store.Query{
		Where: "book_id = ?",
		Args:  []any{id},
		Order: "created_at DESC",
	})
	if err != nil {
		return entities.Book{}, false, fmt.Errorf("failed to load quotes for book %s: %w", id, err)
	}
	book.Quotes = bookQuotes
	return book, true, nil
}

// UpdateProgress records how many pages of a book have been read. The value
// is clamped to the book's page count. A book that reaches its last page is
// marked finished; a book still on the wishlist moves to reading.
func (r *Repository) UpdateProgress(ctx context.Context, id string, pagesRead int) (entities.Book, error) {
	book, found, err := r.GetByID(ctx, id)
	if err != nil {
		return entities.Book{}, err
	}
	if !found {
		return entities.Book{}, fmt.Errorf("update progress of book %s: %w", id, store.ErrEntityNotFound)
	}

	book.PagesRead = clampPages(pagesRead, book.TotalPages)

	if book.Status == entities.BookStatusWant && book.PagesRead > 0 {
		book.Status = entities.BookStatusReading
	}
	if book.Status != entities.BookStatusFinished && book.IsFinished() {
		finishedAt := r.now()
		book.Status = entities.BookStatusFinished
		book.FinishedAt = &finishedAt
		log.Printf("Finished book %q by %s", book.Title, book.Author)
	}

	if err := r.Update(ctx, book); err != nil {
		return entities.Book{}, err
	}
	return book, nil
}

// Close ends every subscription owned by the repository.
func (r *Repository) Close() {
	r.Store.Close()
	r.quotes.Close()
}

func clampPages(pages, total int) int {
	if pages < 0 {
		return 0
	}
	if total > 0 && pages > total {
		return total
	}
	return pages
}
