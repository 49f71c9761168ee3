package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// ErrQueueNotRegistered is returned by Enqueue for a task whose queue has no processor.
var ErrQueueNotRegistered = errors.New("queue not registered")

type clientState int

const (
	stateIdle clientState = iota
	stateRunning
	stateStopped
)

// Client runs the reading tracker's background jobs on a backlite queue
// stored next to the main database.
type Client struct {
	queue *backlite.Client
	db    *sql.DB
	path  string
	cfg   Config

	mu         sync.Mutex
	state      clientState
	registered map[string]bool
}

// TasksDBPath returns the task queue database path for a main database:
// the same directory and name with a "-tasks" suffix.
func TasksDBPath(mainDBPath string) string {
	dir, base := filepath.Split(mainDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

func openTasksDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// Workers plus headroom for enqueues and status lookups.
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens the queue database that belongs to mainDBPath and installs
// the backlite schema. The main database keeps its single connection; queue
// polling happens on this one.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	path := TasksDBPath(mainDBPath)

	db, err := openTasksDB(path, cfg.Workers)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &stdLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := queue.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		queue:      queue,
		db:         db,
		path:       path,
		cfg:        cfg,
		registered: make(map[string]bool),
	}, nil
}

// Path returns the location of the queue database.
func (c *Client) Path() string {
	return c.path
}

// RegisterStreakQueues registers the reset_streak and recompute_stats
// processors. Must be called before Start.
func (c *Client) RegisterStreakQueues(resetter StreakResetter, recomputer StatsRecomputer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue.Register(NewResetStreakQueue(resetter))
	c.registered[ResetStreakTask{}.Config().Name] = true

	c.queue.Register(NewRecomputeStatsQueue(recomputer))
	c.registered[RecomputeStatsTask{}.Config().Name] = true
}

// Start begins processing tasks and returns immediately. A client runs at
// most once; calls after the first are ignored.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateRunning
	c.mu.Unlock()

	log.Printf("[TASK] Task queue started with %d workers (%s)", c.cfg.Workers, c.path)
	c.queue.Start(ctx)
}

// Running reports whether workers are processing tasks.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateRunning
}

// Stop waits for in-flight tasks until ctx expires. It returns false if
// the deadline cut some of them short.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != stateRunning {
		c.mu.Unlock()
		return true
	}
	c.state = stateStopped
	c.mu.Unlock()

	log.Println("[TASK] Stopping task queue...")
	if !c.queue.Stop(ctx) {
		log.Println("[TASK] Task queue stopped with timeout (some tasks may not have completed)")
		return false
	}
	log.Println("[TASK] Task queue stopped gracefully")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Enqueue stores a single task and returns its id. Tasks are accepted
// before Start; they wait in the queue database until workers run.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	name := task.Config().Name

	c.mu.Lock()
	known := c.registered[name]
	c.mu.Unlock()
	if !known {
		return "", fmt.Errorf("failed to enqueue %s: %w", name, ErrQueueNotRegistered)
	}

	ids, err := c.queue.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", name, err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("failed to enqueue %s: no task id returned", name)
	}
	return ids[0], nil
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

// stdLogger implements backlite.Logger on the standard logger.
type stdLogger struct{}

func (l *stdLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (l *stdLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
