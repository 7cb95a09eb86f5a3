package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/studyshelf/internal/engine"
)

const (
	QueueRefreshSummary      = "refresh_reading_summary"
	QueueRefreshAllSummaries = "refresh_all_summaries"
)

// SummaryStore persists the denormalized per-user reading totals.
type SummaryStore interface {
	ListUserIDs(ctx context.Context) ([]uint, error)
	UpdateReadingSummary(ctx context.Context, userID uint, booksRead, minutes int, at time.Time) error
}

// Observer records task outcomes. metrics.Metrics satisfies it.
type Observer interface {
	ObserveTask(queue string, err error)
}

// SummaryRefresher recomputes User.BooksRead and User.ReadingMinutes from
// the user's progress records.
type SummaryRefresher struct {
	users    SummaryStore
	progress engine.ProgressLister
	now      func() time.Time
}

func NewSummaryRefresher(users SummaryStore, progress engine.ProgressLister) *SummaryRefresher {
	return &SummaryRefresher{users: users, progress: progress, now: time.Now}
}

// Refresh recomputes the summary for one user.
func (r *SummaryRefresher) Refresh(ctx context.Context, userID uint) error {
	records, err := r.progress.ListProgressForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list progress for user %d: %w", userID, err)
	}
	stats := engine.Summarize(records)
	if err := r.users.UpdateReadingSummary(ctx, userID, stats.CompletedBooks, stats.TotalReadingTime, r.now()); err != nil {
		return fmt.Errorf("update summary for user %d: %w", userID, err)
	}
	return nil
}

// RefreshAll refreshes every user and returns how many succeeded. Failures
// for individual users are joined into the returned error.
func (r *SummaryRefresher) RefreshAll(ctx context.Context) (int, error) {
	ids, err := r.users.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		refreshed int
		errs      []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if err := r.Refresh(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

// RefreshReadingSummaryTask recomputes one user's reading summary.
type RefreshReadingSummaryTask struct {
	UserID uint `json:"user_id"`
}

// Config returns the queue configuration for summary refresh tasks.
func (t RefreshReadingSummaryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueRefreshSummary,
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshReadingSummaryProcessor creates a processor function for
// RefreshReadingSummaryTask. observer may be nil.
func RefreshReadingSummaryProcessor(r *SummaryRefresher, observer Observer) backlite.QueueProcessor[RefreshReadingSummaryTask] {
	return func(ctx context.Context, task RefreshReadingSummaryTask) error {
		err := r.Refresh(ctx, task.UserID)
		observe(observer, QueueRefreshSummary, err)
		if err != nil {
			return err
		}
		slog.Debug("Reading summary refreshed", "user_id", task.UserID)
		return nil
	}
}

// NewRefreshReadingSummaryQueue creates a backlite queue for summary refresh tasks.
func NewRefreshReadingSummaryQueue(r *SummaryRefresher, observer Observer) backlite.Queue {
	return backlite.NewQueue(RefreshReadingSummaryProcessor(r, observer))
}

// RefreshAllSummariesTask recomputes every user's reading summary.
type RefreshAllSummariesTask struct{}

// Config returns the queue configuration for bulk summary refresh tasks.
func (t RefreshAllSummariesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueRefreshAllSummaries,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshAllSummariesProcessor creates a processor function for
// RefreshAllSummariesTask. observer may be nil.
func RefreshAllSummariesProcessor(r *SummaryRefresher, observer Observer) backlite.QueueProcessor[RefreshAllSummariesTask] {
	return func(ctx context.Context, _ RefreshAllSummariesTask) error {
		refreshed, err := r.RefreshAll(ctx)
		observe(observer, QueueRefreshAllSummaries, err)
		if err != nil {
			return fmt.Errorf("refresh all summaries: %w", err)
		}
		slog.Info("Reading summaries refreshed", "users", refreshed)
		return nil
	}
}

// NewRefreshAllSummariesQueue creates a backlite queue for bulk refresh tasks.
func NewRefreshAllSummariesQueue(r *SummaryRefresher, observer Observer) backlite.Queue {
	return backlite.NewQueue(RefreshAllSummariesProcessor(r, observer))
}

func observe(o Observer, queue string, err error) {
	if o != nil {
		o.ObserveTask(queue, err)
	}
}
