package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readtracker/internal/tasks"
)

// TaskEnqueuer hands work to the background task queue.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// StreakResetScheduler checks once a day whether the reading streak was
// broken. With a task queue the check is enqueued as a reset_streak task;
// without one it runs inline.
type StreakResetScheduler struct {
	resetter tasks.StreakResetter
	enqueuer TaskEnqueuer
	schedule string
	now      func() time.Time

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewStreakResetScheduler creates a new scheduler instance. enqueuer may be nil.
func NewStreakResetScheduler(schedule string, resetter tasks.StreakResetter, enqueuer TaskEnqueuer) *StreakResetScheduler {
	return &StreakResetScheduler{
		resetter: resetter,
		enqueuer: enqueuer,
		schedule: schedule,
		now:      time.Now,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the daily job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *StreakResetScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runReset(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule streak reset job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.schedule, s.now())
	log.Printf("[SCHEDULER] Streak reset: started with schedule '%s' (%s). Next run: %v",
		s.schedule, GetCronDescription(s.schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *StreakResetScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("[SCHEDULER] Streak reset: stopped")
}

// RunNow triggers the check immediately and waits for it.
func (s *StreakResetScheduler) RunNow(ctx context.Context) error {
	return s.runReset(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *StreakResetScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next check will occur
func (s *StreakResetScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *StreakResetScheduler) runReset(ctx context.Context) error {
	if s.enqueuer != nil {
		id, err := s.enqueuer.Enqueue(tasks.ResetStreakTask{ScheduledAt: s.now()})
		if err != nil {
			log.Printf("[SCHEDULER] Streak reset: failed to enqueue: %v", err)
			return err
		}
		log.Printf("[SCHEDULER] Streak reset: enqueued task %s", id)
		return nil
	}

	if s.resetter == nil {
		return fmt.Errorf("streak resetter not configured")
	}
	reset, err := s.resetter.ResetStreakIfMissed(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] Streak reset: failed: %v", err)
		return err
	}
	log.Printf("[SCHEDULER] Streak reset: done (reset=%t)", reset)
	return nil
}
