package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtracker/internal/entities"
)

type fakeStreaks struct {
	resets     chan struct{}
	recomputes chan struct{}
	err        error
}

func newFakeStreaks() *fakeStreaks {
	return &fakeStreaks{
		resets:     make(chan struct{}, 1),
		recomputes: make(chan struct{}, 1),
	}
}

func (f *fakeStreaks) ResetStreakIfMissed(ctx context.Context) (bool, error) {
	f.resets <- struct{}{}
	return true, f.err
}

func (f *fakeStreaks) RecomputeStats(ctx context.Context) (entities.UserStats, error) {
	f.recomputes <- struct{}{}
	return entities.UserStats{CurrentStreak: 3}, f.err
}

func TestResetStreakTaskConfig(t *testing.T) {
	cfg := ResetStreakTask{}.Config()

	assert.Equal(t, "reset_streak", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestRecomputeStatsTaskConfig(t *testing.T) {
	cfg := RecomputeStatsTask{}.Config()

	assert.Equal(t, "recompute_stats", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestProcessors_RequireDependencies(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, ResetStreakProcessor(nil)(ctx, ResetStreakTask{}))
	assert.Error(t, RecomputeStatsProcessor(nil)(ctx, RecomputeStatsTask{}))
}

func TestProcessors_PropagateErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStreaks()
	fake.err = errors.New("database is locked")

	err := ResetStreakProcessor(fake)(ctx, ResetStreakTask{ScheduledAt: time.Now()})
	assert.ErrorIs(t, err, fake.err)

	err = RecomputeStatsProcessor(fake)(ctx, RecomputeStatsTask{Reason: "test"})
	assert.ErrorIs(t, err, fake.err)
}

func TestStreakQueues_ProcessEnqueuedTasks(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	fake := newFakeStreaks()
	client.RegisterStreakQueues(fake, fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ResetStreakTask{ScheduledAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = client.Enqueue(RecomputeStatsTask{Reason: "test"})
	require.NoError(t, err)

	for name, ch := range map[string]chan struct{}{"reset": fake.resets, "recompute": fake.recomputes} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("%s task was not executed within timeout", name)
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	client.Stop(stopCtx)
}
