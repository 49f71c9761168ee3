package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtracker/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "reading.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTasksDBPath(t *testing.T) {
	tests := []struct {
		main     string
		expected string
	}{
		{"/data/reading.db", "/data/reading-tasks.db"},
		{"reading.sqlite3", "reading-tasks.sqlite3"},
		{"/data/reading", "/data/reading-tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.main, func(t *testing.T) {
			assert.Equal(t, tt.expected, TasksDBPath(tt.main))
		})
	}
}

func TestNewClient_CreatesQueueDatabase(t *testing.T) {
	client := newTestClient(t)

	assert.FileExists(t, client.Path())
	assert.Equal(t, "reading-tasks.db", filepath.Base(client.Path()))
}

func TestClient_Lifecycle(t *testing.T) {
	client := newTestClient(t)

	assert.True(t, client.Stop(context.Background()), "stopping an idle client is a no-op")
	assert.False(t, client.Running())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	assert.Eventually(t, client.Running, time.Second, 10*time.Millisecond)

	// Give the workers time to come up
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
	assert.False(t, client.Running())

	client.Start(ctx)
	assert.False(t, client.Running(), "a stopped client does not restart")
}

func TestClient_EnqueueRequiresRegisteredQueue(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Enqueue(ResetStreakTask{ScheduledAt: time.Now()})

	assert.ErrorIs(t, err, ErrQueueNotRegistered)
}

func TestClient_StatusOfEnqueuedTask(t *testing.T) {
	client := newTestClient(t)
	fake := newFakeStreaks()
	client.RegisterStreakQueues(fake, fake)

	// Not started: the task stays pending.
	id, err := client.Enqueue(RecomputeStatsTask{Reason: "test"})
	require.NoError(t, err)

	status, err := client.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, backlite.TaskStatusPending, status)

	status, err = client.Status(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, backlite.TaskStatusNotFound, status)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Tasks{Workers: 5, ReleaseAfter: time.Minute})

	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, 3, cfg.MaxRetries, "unset values keep defaults")
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
