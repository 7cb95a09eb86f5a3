package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/studyshelf/internal/entities"
)

func TestSummarize(t *testing.T) {
	records := []entities.ReadingProgress{
		{ID: 1, CurrentPage: 100, TotalTimeRead: 30, ProgressPercentage: 100, IsCompleted: true},
		{ID: 2, CurrentPage: 40, TotalTimeRead: 15, ProgressPercentage: 40},
		{ID: 3, CurrentPage: 250, TotalTimeRead: 60, ProgressPercentage: 100, IsCompleted: true},
	}

	stats := Summarize(records)

	assert.Equal(t, 3, stats.TotalBooks)
	assert.Equal(t, 2, stats.CompletedBooks)
	assert.Equal(t, 105, stats.TotalReadingTime)
	assert.Equal(t, 390, stats.TotalPagesRead)
	require.Len(t, stats.ActiveBooks, 1)
	assert.Equal(t, uint(2), stats.ActiveBooks[0].ID)
}

func TestSummarize_ActiveBooksRankingIsStable(t *testing.T) {
	percentages := []int{10, 60, 30, 60, 90, 30, 5}
	var records []entities.ReadingProgress
	for i, pct := range percentages {
		records = append(records, entities.ReadingProgress{ID: uint(i + 1), ProgressPercentage: pct})
	}

	stats := Summarize(records)

	require.Len(t, stats.ActiveBooks, ActiveBooksLimit)
	var ids []uint
	for _, r := range stats.ActiveBooks {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uint{5, 2, 4, 3, 6}, ids)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil)

	assert.Zero(t, stats.TotalBooks)
	assert.NotNil(t, stats.ActiveBooks)
	assert.Empty(t, stats.ActiveBooks)
}

func TestGetStats(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	a, b, c := f.book(t, 100), f.book(t, 200), f.book(t, 100)

	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), a.ID, ProgressUpdate{CurrentPage: intPtr(100), TotalTimeRead: intPtr(20)})
	require.NoError(t, err)
	_, err = f.eng.Progress.UpsertProgress(ctx, user(1), b.ID, ProgressUpdate{CurrentPage: intPtr(200), TotalTimeRead: intPtr(40)})
	require.NoError(t, err)
	_, err = f.eng.Progress.UpsertProgress(ctx, user(1), c.ID, ProgressUpdate{CurrentPage: intPtr(40), TotalTimeRead: intPtr(5)})
	require.NoError(t, err)
	_, err = f.eng.Progress.UpsertProgress(ctx, user(2), c.ID, ProgressUpdate{CurrentPage: intPtr(90)})
	require.NoError(t, err)

	stats, err := f.eng.Stats.GetStats(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalBooks)
	assert.Equal(t, 2, stats.CompletedBooks)
	assert.Equal(t, 65, stats.TotalReadingTime)
	assert.Equal(t, 340, stats.TotalPagesRead)
	require.Len(t, stats.ActiveBooks, 1)
	assert.Equal(t, c.ID, stats.ActiveBooks[0].BookID)
	assert.Equal(t, 40, stats.ActiveBooks[0].ProgressPercentage)
}

func TestGetStats_NoRecords(t *testing.T) {
	f := setupEngine(t)

	stats, err := f.eng.Stats.GetStats(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalBooks)
	assert.Empty(t, stats.ActiveBooks)
}
