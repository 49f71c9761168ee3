package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtracker/internal/entities"
)

type booksListResponse struct {
	Books []BookResponse `json:"books"`
	Count int            `json:"count"`
}

func TestBooksController_GetAllBooks(t *testing.T) {
	t.Run("returns empty list when no books", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "GET", "/api/books", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode[booksListResponse](t, w)
		assert.Equal(t, 0, response.Count)
		assert.Empty(t, response.Books)
	})

	t.Run("filters by status", func(t *testing.T) {
		env := setupTestEnv(t, nil)
		env.addBook(t, "Reading", 100)
		want := entities.Book{
			ID: entities.NewID(), Title: "Later", Author: "A", TotalPages: 50,
			Status: entities.BookStatusWant, CreatedAt: nowMillis(),
		}
		require.NoError(t, env.books.Insert(context.Background(), want))

		w := env.do(t, "GET", "/api/books?status=want", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode[booksListResponse](t, w)
		require.Equal(t, 1, response.Count)
		assert.Equal(t, "Later", response.Books[0].Title)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "GET", "/api/books?status=abandoned", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBooksController_CreateBook(t *testing.T) {
	t.Run("creates a book with defaults", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "POST", "/api/books", gin.H{"title": "Dune", "author": "Frank Herbert", "total_pages": 412})

		assert.Equal(t, http.StatusCreated, w.Code)
		created := decode[BookResponse](t, w)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, entities.BookStatusWant, created.Status)

		stored, found, err := env.books.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Dune", stored.Title)
	})

	t.Run("requires title and author", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "POST", "/api/books", gin.H{"total_pages": 10})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "validation_failed")
	})

	t.Run("rejects negative pages", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "POST", "/api/books", gin.H{"title": "T", "author": "A", "total_pages": -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("finished books get a finish date", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "POST", "/api/books", gin.H{"title": "Done", "author": "A", "total_pages": 10, "status": "finished"})

		assert.Equal(t, http.StatusCreated, w.Code)
		created := decode[BookResponse](t, w)
		assert.NotNil(t, created.FinishedAt)

		stats, err := env.reading.GetStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalBooksRead)
	})

	t.Run("unfinished books are not counted", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "POST", "/api/books", gin.H{"title": "Later", "author": "A", "total_pages": 10, "status": "reading"})

		assert.Equal(t, http.StatusCreated, w.Code)
		stats, err := env.reading.GetStats(context.Background())
		require.NoError(t, err)
		assert.Zero(t, stats.TotalBooksRead)
	})
}

func TestBooksController_GetBook(t *testing.T) {
	env := setupTestEnv(t, nil)
	book := env.addBook(t, "Quoted", 200)
	require.NoError(t, env.quotes.Insert(context.Background(), entities.Quote{
		ID: entities.NewID(), BookID: book.ID, Text: "a line", CreatedAt: nowMillis(),
	}))

	t.Run("includes quotes", func(t *testing.T) {
		w := env.do(t, "GET", "/api/books/"+book.ID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		got := decode[BookResponse](t, w)
		assert.Equal(t, book.ID, got.ID)
		require.Len(t, got.Quotes, 1)
		assert.Equal(t, "a line", got.Quotes[0].Text)
	})

	t.Run("returns 404 for missing book", func(t *testing.T) {
		w := env.do(t, "GET", "/api/books/missing", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "book not found")
	})
}

func TestBooksController_UpdateBook(t *testing.T) {
	env := setupTestEnv(t, nil)
	book := env.addBook(t, "Draft", 100)

	t.Run("replaces fields", func(t *testing.T) {
		w := env.do(t, "PUT", "/api/books/"+book.ID, gin.H{
			"title": "Final", "author": "Someone", "total_pages": 120, "pages_read": 30, "status": "reading",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		stored, _, err := env.books.GetByID(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final", stored.Title)
		assert.Equal(t, 120, stored.TotalPages)
		assert.Equal(t, 30, stored.PagesRead)
		assert.True(t, book.CreatedAt.Equal(stored.CreatedAt))
	})

	t.Run("marking finished counts the book once", func(t *testing.T) {
		finish := gin.H{"title": "Final", "author": "Someone", "total_pages": 120, "pages_read": 120, "status": "finished"}

		w := env.do(t, "PUT", "/api/books/"+book.ID, finish)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, decode[BookResponse](t, w).FinishedAt)

		w = env.do(t, "PUT", "/api/books/"+book.ID, finish)
		assert.Equal(t, http.StatusOK, w.Code)

		stats, err := env.reading.GetStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalBooksRead)

		recomputed, err := env.reading.RecomputeStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stats.TotalBooksRead, recomputed.TotalBooksRead, "the running count matches a recompute")
	})

	t.Run("missing book", func(t *testing.T) {
		w := env.do(t, "PUT", "/api/books/missing", gin.H{"title": "T", "author": "A"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksController_DeleteBook(t *testing.T) {
	env := setupTestEnv(t, nil)
	book := env.addBook(t, "Gone", 100)

	w := env.do(t, "DELETE", "/api/books/"+book.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "DELETE", "/api/books/"+book.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksController_UpdateProgress(t *testing.T) {
	t.Run("finishing counts the book", func(t *testing.T) {
		env := setupTestEnv(t, nil)
		book := env.addBook(t, "Short", 50)

		w := env.do(t, "POST", "/api/books/"+book.ID+"/progress", gin.H{"pages_read": 80})

		assert.Equal(t, http.StatusOK, w.Code)
		got := decode[BookResponse](t, w)
		assert.Equal(t, 50, got.PagesRead)
		assert.Equal(t, entities.BookStatusFinished, got.Status)
		assert.Equal(t, 1.0, got.Progress)

		stats, err := env.reading.GetStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalBooksRead)
		assert.NotNil(t, stats.LastReadingDate)

		// Finishing again does not double count.
		w = env.do(t, "POST", "/api/books/"+book.ID+"/progress", gin.H{"pages_read": 50})
		assert.Equal(t, http.StatusOK, w.Code)
		stats, err = env.reading.GetStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalBooksRead)
	})

	t.Run("requires pages_read", func(t *testing.T) {
		env := setupTestEnv(t, nil)
		book := env.addBook(t, "Any", 50)

		w := env.do(t, "POST", "/api/books/"+book.ID+"/progress", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing book", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, "POST", "/api/books/missing/progress", gin.H{"pages_read": 1})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksController_GetBookQuotes(t *testing.T) {
	env := setupTestEnv(t, nil)
	book := env.addBook(t, "Quoted", 100)
	require.NoError(t, env.quotes.Insert(context.Background(), entities.Quote{
		ID: entities.NewID(), BookID: book.ID, Text: "one", CreatedAt: nowMillis(),
	}))

	w := env.do(t, "GET", "/api/books/"+book.ID+"/quotes", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count": 1`)

	w = env.do(t, "GET", "/api/books/missing/quotes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksController_WatchBooks(t *testing.T) {
	env := setupTestEnv(t, nil)
	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", server.URL+"/api/books/watch", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(resp)

	first := nextEvent[SnapshotEvent[entities.Book]](t, events, "books")
	assert.Equal(t, 0, first.Count)

	book := env.addBook(t, "Streamed", 10)

	for {
		snap := nextEvent[SnapshotEvent[entities.Book]](t, events, "books")
		if snap.Count == 1 {
			assert.Equal(t, book.ID, snap.Items[0].ID)
			break
		}
	}
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses a server-sent event stream into a channel of events.
func readEvents(resp *http.Response) <-chan sseEvent {
	out := make(chan sseEvent, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		var current sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				current.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				current.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "":
				if current.name != "" {
					out <- current
				}
				current = sseEvent{}
			}
		}
	}()
	return out
}

func nextEvent[T any](t *testing.T, events <-chan sseEvent, name string) T {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed")
		require.Equal(t, name, ev.name)
		var v T
		require.NoError(t, json.Unmarshal([]byte(ev.data), &v))
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s event", name)
	}
	var zero T
	return zero
}
