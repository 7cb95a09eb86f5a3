// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/studyshelf/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// SummaryRefreshScheduler periodically enqueues a refresh of every user's
// reading summary.
type SummaryRefreshScheduler struct {
	queue    tasks.Enqueuer
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

func NewSummaryRefreshScheduler(queue tasks.Enqueuer, schedule string) *SummaryRefreshScheduler {
	return &SummaryRefreshScheduler{
		queue:    queue,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *SummaryRefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunNow(ctx); err != nil {
			slog.Error("Summary refresh scheduler: enqueue failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule summary refresh: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	slog.Info("Summary refresh scheduler started", "schedule", s.schedule, "next_run", s.nextRunLocked())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *SummaryRefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false

	slog.Info("Summary refresh scheduler stopped")
}

// RunNow enqueues an immediate refresh of all summaries.
func (s *SummaryRefreshScheduler) RunNow(ctx context.Context) error {
	return s.queue.Enqueue(ctx, tasks.RefreshAllSummariesTask{})
}

func (s *SummaryRefreshScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the job will next fire, or nil if stopped.
func (s *SummaryRefreshScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *SummaryRefreshScheduler) nextRunLocked() *time.Time {
	t := s.cron.Entry(s.entryID).Next
	if t.IsZero() {
		// cron fills Next asynchronously after Start
		sched, err := cronParser.Parse(s.schedule)
		if err != nil {
			return nil
		}
		t = sched.Next(time.Now())
	}
	return &t
}
