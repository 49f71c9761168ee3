// Package quotes provides database operations for quotes saved from books.
package quotes

import (
	"context"
	"math/rand/v2"

	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

// Repository handles quote database operations.
type Repository struct {
	*store.Store[entities.Quote, string]

	pick func(n int) int
}

// Option customises a Repository.
type Option func(*Repository)

// WithPicker replaces the random offset source used by Random. pick must
// return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(r *Repository) {
		r.pick = pick
	}
}

// NewRepository creates a new quotes repository.
func NewRepository(conn store.Connector, opts ...Option) *Repository {
	r := &Repository{
		Store: store.New[entities.Quote, string](conn, Codec{}),
		pick:  rand.IntN,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetByBook returns the quotes of one book, newest first.
func (r *Repository) GetByBook(ctx context.Context, bookID string) ([]entities.Quote, error) {
	return r.Find(ctx, store.Query{
		Where: "book_id = ?",
		Args:  []any{bookID},
		Order: "created_at DESC",
	})
}

// WatchByBook streams the quotes of one book, derived from WatchAll.
func (r *Repository) WatchByBook(ctx context.Context, bookID string) <-chan store.Snapshot[entities.Quote] {
	return store.Filter(r.WatchAll(ctx), func(q entities.Quote) bool {
		return q.BookID == bookID
	})
}

// Random returns a uniformly chosen quote. The boolean is false when there
// are no quotes.
func (r *Repository) Random(ctx context.Context) (entities.Quote, bool, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return entities.Quote{}, false, err
	}
	if count == 0 {
		return entities.Quote{}, false, nil
	}
	return r.At(ctx, r.pick(int(count)))
}
