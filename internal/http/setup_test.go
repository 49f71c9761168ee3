package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readtracker/internal/database"
	"github.com/mrlokans/readtracker/internal/database/books"
	"github.com/mrlokans/readtracker/internal/database/quotes"
	"github.com/mrlokans/readtracker/internal/database/users"
	"github.com/mrlokans/readtracker/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db      *database.Database
	books   *books.Repository
	quotes  *quotes.Repository
	reading *users.Repository
	router  *gin.Engine
}

func setupTestEnv(t *testing.T, queue TaskQueue) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test_http.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		books:   books.NewRepository(db),
		quotes:  quotes.NewRepository(db),
		reading: users.NewRepository(db),
	}

	cfg := RouterConfig{
		Books:    env.books,
		Quotes:   env.quotes,
		Reading:  env.reading,
		Database: db,
		Version:  "test",
	}
	if queue != nil {
		cfg.Tasks = queue
	}
	env.router = NewRouter(cfg)

	t.Cleanup(func() {
		env.books.Close()
		env.quotes.Close()
		env.reading.Close()
		db.Close()
	})
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) addBook(t *testing.T, title string, total int) entities.Book {
	t.Helper()
	book := entities.Book{
		ID:         entities.NewID(),
		Title:      title,
		Author:     "Test Author",
		TotalPages: total,
		Status:     entities.BookStatusReading,
		CreatedAt:  nowMillis(),
	}
	require.NoError(t, env.books.Insert(context.Background(), book))
	return book
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// fakeQueue records enqueued tasks.
type fakeQueue struct {
	mu       sync.Mutex
	enqueued []backlite.Task
	statuses map[string]backlite.TaskStatus
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, task)
	return "task-1", nil
}

func (q *fakeQueue) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if status, ok := q.statuses[taskID]; ok {
		return status, nil
	}
	return backlite.TaskStatusNotFound, nil
}
