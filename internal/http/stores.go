package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

// This file consolidates the store interfaces used by HTTP controllers.
// The database repositories satisfy them; tests may substitute fakes.

// BookStore provides access to books. Satisfied by *books.Repository.
type BookStore interface {
	GetAll(ctx context.Context) ([]entities.Book, error)
	GetByID(ctx context.Context, id string) (entities.Book, bool, error)
	GetByStatus(ctx context.Context, status entities.BookStatus) ([]entities.Book, error)
	GetWithQuotes(ctx context.Context, id string) (entities.Book, bool, error)
	Insert(ctx context.Context, book entities.Book) error
	Update(ctx context.Context, book entities.Book) error
	Delete(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, pagesRead int) (entities.Book, error)
	WatchAll(ctx context.Context) <-chan store.Snapshot[entities.Book]
	WatchByID(ctx context.Context, id string) <-chan store.Item[entities.Book]
	WatchByStatus(ctx context.Context, status entities.BookStatus) <-chan store.Snapshot[entities.Book]
}

// QuoteStore provides access to quotes. Satisfied by *quotes.Repository.
type QuoteStore interface {
	GetAll(ctx context.Context) ([]entities.Quote, error)
	GetByBook(ctx context.Context, bookID string) ([]entities.Quote, error)
	Insert(ctx context.Context, quote entities.Quote) error
	Delete(ctx context.Context, id string) error
	Random(ctx context.Context) (entities.Quote, bool, error)
}

// ReadingStore provides access to reading sessions and statistics.
// Satisfied by *users.Repository.
type ReadingStore interface {
	LogSession(ctx context.Context, session entities.ReadingSession) error
	GetAllSessions(ctx context.Context) ([]entities.ReadingSession, error)
	GetSessionsBetween(ctx context.Context, start, end time.Time) ([]entities.ReadingSession, error)
	GetSessionsForBook(ctx context.Context, bookID string) ([]entities.ReadingSession, error)
	DeleteSession(ctx context.Context, id string) error

	GetStats(ctx context.Context) (entities.UserStats, error)
	WatchStats(ctx context.Context) <-chan store.Item[entities.UserStats]
	PagesReadOnDate(ctx context.Context, date time.Time) (int, error)
	HasReadToday(ctx context.Context) (bool, error)
	RecordBookFinished(ctx context.Context) error
	UpdateStreakOnProgress(ctx context.Context) (entities.UserStats, error)
	RecomputeStats(ctx context.Context) (entities.UserStats, error)
}

// TaskQueue hands work to the background queue. Satisfied by *tasks.Client.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// HealthChecker reports whether the database is reachable and which schema
// it is on. Satisfied by *database.Database.
type HealthChecker interface {
	Ping(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
}

// CoverCache keeps local copies of cover images. Satisfied by *covers.Cache.
type CoverCache interface {
	GetCover(ctx context.Context, bookID, coverURL string) (string, error)
	InvalidateCover(bookID string) error
}
