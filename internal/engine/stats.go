package engine

import (
	"cmp"
	"context"
	"slices"

	"github.com/mrlokans/studyshelf/internal/entities"
)

// ActiveBooksLimit caps Stats.ActiveBooks.
const ActiveBooksLimit = 5

type Stats struct {
	TotalBooks       int                        `json:"total_books"`
	CompletedBooks   int                        `json:"completed_books"`
	TotalReadingTime int                        `json:"total_reading_time"` // minutes
	TotalPagesRead   int                        `json:"total_pages_read"`
	ActiveBooks      []entities.ReadingProgress `json:"active_books"`
}

// Summarize folds a user's progress records, given in creation order.
// ActiveBooks holds the most advanced unfinished records, ties kept in
// input order.
func Summarize(records []entities.ReadingProgress) Stats {
	stats := Stats{ActiveBooks: []entities.ReadingProgress{}}
	for _, r := range records {
		stats.TotalBooks++
		stats.TotalReadingTime += r.TotalTimeRead
		stats.TotalPagesRead += r.CurrentPage
		if r.IsCompleted {
			stats.CompletedBooks++
			continue
		}
		stats.ActiveBooks = append(stats.ActiveBooks, r)
	}

	slices.SortStableFunc(stats.ActiveBooks, func(a, b entities.ReadingProgress) int {
		return cmp.Compare(b.ProgressPercentage, a.ProgressPercentage)
	})
	if len(stats.ActiveBooks) > ActiveBooksLimit {
		stats.ActiveBooks = stats.ActiveBooks[:ActiveBooksLimit]
	}
	return stats
}

// ProgressLister is the read side the aggregator needs.
type ProgressLister interface {
	ListProgressForUser(ctx context.Context, userID uint) ([]entities.ReadingProgress, error)
}

// StatsAggregator computes per-user summaries on demand. It never writes.
type StatsAggregator struct {
	store ProgressLister
}

func NewStatsAggregator(store ProgressLister) *StatsAggregator {
	return &StatsAggregator{store: store}
}

func (a *StatsAggregator) GetStats(ctx context.Context, userID uint) (*Stats, error) {
	records, err := a.store.ListProgressForUser(ctx, userID)
	if err != nil {
		return nil, storeError("get stats", "progress", err)
	}
	stats := Summarize(records)
	return &stats, nil
}
