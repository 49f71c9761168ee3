package books

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readtracker/internal/database"
	"github.com/mrlokans/readtracker/internal/database/quotes"
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

var fixedNow = time.Date(2024, time.March, 10, 18, 30, 0, 0, time.Local)

func setupTestDB(t *testing.T) (*Repository, *database.Database, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_books.db")

	db, err := database.Open(dbPath, database.WithLogLevel(logger.Silent))
	require.NoError(t, err)

	repo := NewRepository(db, WithClock(func() time.Time { return fixedNow }))

	cleanup := func() {
		repo.Close()
		db.Close()
	}
	return repo, db, cleanup
}

func newBook(title string, total int, status entities.BookStatus) entities.Book {
	return entities.Book{
		ID:         entities.NewID(),
		Title:      title,
		Author:     "Test Author",
		TotalPages: total,
		Status:     status,
		CreatedAt:  time.UnixMilli(time.Now().UnixMilli()),
	}
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cover := "https://covers.example/dune.jpg"
	book := newBook("Dune", 412, entities.BookStatusReading)
	book.CoverURL = &cover
	book.PagesRead = 100

	require.NoError(t, repo.Insert(ctx, book))

	got, found, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, book, got)
}

func TestRepository_DuplicateInsertKeepsOriginal(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	book := newBook("Original", 100, entities.BookStatusWant)
	require.NoError(t, repo.Insert(ctx, book))

	clash := book
	clash.Title = "Impostor"
	err := repo.Insert(ctx, clash)
	assert.ErrorIs(t, err, store.ErrDuplicateEntity)

	got, _, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)
}

func TestRepository_UnknownStatusFailsDecoding(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Exec(
		`INSERT INTO books (id, title, author, total_pages, status, created_at) VALUES ('b1', 'T', 'A', 10, 'abandoned', 0)`,
	).Error)

	_, _, err = repo.GetByID(ctx, "b1")
	assert.Error(t, err)
}

func TestRepository_GetByStatus(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	want := newBook("Someday", 100, entities.BookStatusWant)
	reading1 := newBook("Now A", 100, entities.BookStatusReading)
	reading2 := newBook("Now B", 100, entities.BookStatusReading)
	reading2.CreatedAt = reading1.CreatedAt.Add(time.Hour)

	for _, b := range []entities.Book{want, reading1, reading2} {
		require.NoError(t, repo.Insert(ctx, b))
	}

	reading, err := repo.GetByStatus(ctx, entities.BookStatusReading)
	require.NoError(t, err)
	require.Len(t, reading, 2)
	assert.Equal(t, reading2.ID, reading[0].ID, "newest first")
	assert.Equal(t, reading1.ID, reading[1].ID)

	finished, err := repo.GetByStatus(ctx, entities.BookStatusFinished)
	require.NoError(t, err)
	assert.Empty(t, finished)
}

func TestRepository_WatchByStatus(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := repo.WatchByStatus(ctx, entities.BookStatusFinished)
	first := receive(t, updates)
	assert.Empty(t, first.Items)

	book := newBook("Short", 10, entities.BookStatusReading)
	require.NoError(t, repo.Insert(ctx, book))

	_, err := repo.UpdateProgress(ctx, book.ID, 10)
	require.NoError(t, err)

	for {
		snap := receive(t, updates)
		require.NoError(t, snap.Err)
		if len(snap.Items) == 1 {
			assert.Equal(t, book.ID, snap.Items[0].ID)
			break
		}
	}
}

func TestRepository_GetWithQuotes(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	quotesRepo := quotes.NewRepository(db)
	defer quotesRepo.Close()

	book := newBook("Quoted", 300, entities.BookStatusReading)
	other := newBook("Other", 300, entities.BookStatusReading)
	require.NoError(t, repo.Insert(ctx, book))
	require.NoError(t, repo.Insert(ctx, other))

	older := entities.Quote{ID: entities.NewID(), BookID: book.ID, Text: "first", CreatedAt: fixedNow.Add(-time.Hour)}
	newer := entities.Quote{ID: entities.NewID(), BookID: book.ID, Text: "second", CreatedAt: fixedNow}
	elsewhere := entities.Quote{ID: entities.NewID(), BookID: other.ID, Text: "elsewhere", CreatedAt: fixedNow}
	for _, q := range []entities.Quote{older, newer, elsewhere} {
		require.NoError(t, quotesRepo.Insert(ctx, q))
	}

	got, found, err := repo.GetWithQuotes(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Quotes, 2)
	assert.Equal(t, "second", got.Quotes[0].Text)
	assert.Equal(t, "first", got.Quotes[1].Text)

	_, found, err = repo.GetWithQuotes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepository_DeleteCascadesQuotes(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	quotesRepo := quotes.NewRepository(db)
	defer quotesRepo.Close()

	book := newBook("Doomed", 100, entities.BookStatusWant)
	require.NoError(t, repo.Insert(ctx, book))
	require.NoError(t, quotesRepo.Insert(ctx, entities.Quote{ID: "q1", BookID: book.ID, Text: "gone", CreatedAt: fixedNow}))

	require.NoError(t, repo.Delete(ctx, book.ID))

	count, err := quotesRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_UpdateProgress(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	book := newBook("Progress", 200, entities.BookStatusWant)
	require.NoError(t, repo.Insert(ctx, book))

	t.Run("starts reading", func(t *testing.T) {
		updated, err := repo.UpdateProgress(ctx, book.ID, 50)
		require.NoError(t, err)
		assert.Equal(t, 50, updated.PagesRead)
		assert.Equal(t, entities.BookStatusReading, updated.Status)
		assert.Nil(t, updated.FinishedAt)
	})

	t.Run("clamps negative pages", func(t *testing.T) {
		updated, err := repo.UpdateProgress(ctx, book.ID, -10)
		require.NoError(t, err)
		assert.Equal(t, 0, updated.PagesRead)
	})

	t.Run("clamps past the end and finishes", func(t *testing.T) {
		updated, err := repo.UpdateProgress(ctx, book.ID, 999)
		require.NoError(t, err)
		assert.Equal(t, 200, updated.PagesRead)
		assert.Equal(t, entities.BookStatusFinished, updated.Status)
		require.NotNil(t, updated.FinishedAt)
		assert.True(t, fixedNow.Equal(*updated.FinishedAt))
		assert.Equal(t, 1.0, updated.Progress())

		stored, _, err := repo.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.BookStatusFinished, stored.Status)
		assert.True(t, fixedNow.Equal(*stored.FinishedAt))
	})

	t.Run("missing book", func(t *testing.T) {
		_, err := repo.UpdateProgress(ctx, "missing", 10)
		assert.ErrorIs(t, err, store.ErrEntityNotFound)
	})
}

func TestClampPages(t *testing.T) {
	assert.Equal(t, 0, clampPages(-1, 100))
	assert.Equal(t, 50, clampPages(50, 100))
	assert.Equal(t, 100, clampPages(150, 100))
	assert.Equal(t, 150, clampPages(150, 0), "unknown length is not clamped")
}

func receive(t *testing.T, ch <-chan store.Snapshot[entities.Book]) store.Snapshot[entities.Book] {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for books snapshot")
	}
	return store.Snapshot[entities.Book]{}
}
