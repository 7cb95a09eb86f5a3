package tasks

import (
	"context"
	"log/slog"

	"github.com/mrlokans/studyshelf/internal/events"
)

// SummaryTrigger enqueues a reading summary refresh whenever a user
// completes a book.
type SummaryTrigger struct {
	queue Enqueuer
}

func NewSummaryTrigger(queue Enqueuer) *SummaryTrigger {
	return &SummaryTrigger{queue: queue}
}

// Publish implements events.Publisher.
func (t *SummaryTrigger) Publish(ctx context.Context, event events.Event) {
	if event.Type != events.ProgressCompleted || event.UserID == 0 {
		return
	}
	if err := t.queue.Enqueue(ctx, RefreshReadingSummaryTask{UserID: event.UserID}); err != nil {
		slog.Error("Failed to enqueue summary refresh", "user_id", event.UserID, "error", err)
	}
}
