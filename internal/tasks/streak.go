package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readtracker/internal/entities"
)

// StreakResetter zeroes the current streak when a day was missed.
type StreakResetter interface {
	ResetStreakIfMissed(ctx context.Context) (bool, error)
}

// StatsRecomputer rebuilds the aggregated reading statistics.
type StatsRecomputer interface {
	RecomputeStats(ctx context.Context) (entities.UserStats, error)
}

// ResetStreakTask checks whether yesterday was missed and resets the streak.
type ResetStreakTask struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Config returns the queue configuration for streak reset tasks.
func (t ResetStreakTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reset_streak",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ResetStreakProcessor creates a processor function for ResetStreakTask.
func ResetStreakProcessor(resetter StreakResetter) backlite.QueueProcessor[ResetStreakTask] {
	return func(ctx context.Context, task ResetStreakTask) error {
		if resetter == nil {
			return fmt.Errorf("streak resetter not configured")
		}

		reset, err := resetter.ResetStreakIfMissed(ctx)
		if err != nil {
			return fmt.Errorf("reset streak: %w", err)
		}

		if reset {
			log.Printf("[TASK] Streak reset (scheduled at %s)", task.ScheduledAt.Format(time.RFC3339))
		} else {
			log.Printf("[TASK] Streak intact, nothing to reset")
		}
		return nil
	}
}

// NewResetStreakQueue creates a backlite queue for streak reset tasks.
func NewResetStreakQueue(resetter StreakResetter) backlite.Queue {
	return backlite.NewQueue(ResetStreakProcessor(resetter))
}

// RecomputeStatsTask rebuilds the statistics from sessions and books.
type RecomputeStatsTask struct {
	Reason string `json:"reason"`
}

// Config returns the queue configuration for stats recomputation tasks.
func (t RecomputeStatsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "recompute_stats",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RecomputeStatsProcessor creates a processor function for RecomputeStatsTask.
func RecomputeStatsProcessor(recomputer StatsRecomputer) backlite.QueueProcessor[RecomputeStatsTask] {
	return func(ctx context.Context, task RecomputeStatsTask) error {
		if recomputer == nil {
			return fmt.Errorf("stats recomputer not configured")
		}

		stats, err := recomputer.RecomputeStats(ctx)
		if err != nil {
			return fmt.Errorf("recompute stats: %w", err)
		}

		log.Printf("[TASK] Recomputed stats (%s): %d pages, %d books, streak %d",
			task.Reason, stats.TotalPagesRead, stats.TotalBooksRead, stats.CurrentStreak)
		return nil
	}
}

// NewRecomputeStatsQueue creates a backlite queue for stats recomputation tasks.
func NewRecomputeStatsQueue(recomputer StatsRecomputer) backlite.Queue {
	return backlite.NewQueue(RecomputeStatsProcessor(recomputer))
}
