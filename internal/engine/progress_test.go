package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/studyshelf/internal/entities"
	"github.com/mrlokans/studyshelf/internal/events"
)

func TestUpsertProgress_PercentageAndCompletion(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)

	rec, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(50), TotalPages: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, 50, rec.ProgressPercentage)
	assert.False(t, rec.IsCompleted)
	assert.Nil(t, rec.CompletionDate)

	completedAt := f.clock.Now().Add(time.Hour)
	f.clock.Advance(time.Hour)
	rec, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, 100, rec.ProgressPercentage)
	assert.True(t, rec.IsCompleted)
	require.NotNil(t, rec.CompletionDate)
	assert.True(t, completedAt.Equal(*rec.CompletionDate))

	// Re-reading from the start keeps the latch and the original date.
	f.clock.Advance(24 * time.Hour)
	rec, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.ProgressPercentage)
	assert.True(t, rec.IsCompleted)
	require.NotNil(t, rec.CompletionDate)
	assert.True(t, completedAt.Equal(*rec.CompletionDate))

	stored, err := f.eng.Progress.GetProgress(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	require.NotNil(t, stored.CompletionDate)
	assert.True(t, completedAt.Equal(*stored.CompletionDate))

	assert.Equal(t, []events.Type{
		events.ProgressUpdated,
		events.ProgressUpdated, events.ProgressCompleted,
		events.ProgressUpdated,
	}, f.recorder.Types())
}

func TestUpsertProgress_TimeAccumulates(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)

	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{TotalTimeRead: intPtr(10)})
	require.NoError(t, err)
	rec, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{TotalTimeRead: intPtr(10)})
	require.NoError(t, err)

	assert.Equal(t, 20, rec.TotalTimeRead)

	stored, err := f.eng.Progress.GetProgress(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.TotalTimeRead)
}

func TestUpsertProgress_NewRecordDefaults(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 300)
	groupID := uint(7)

	rec, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{GroupID: &groupID})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.CurrentPage)
	assert.Equal(t, 300, rec.TotalPages, "taken from the book")
	assert.Equal(t, 0, rec.ProgressPercentage)
	assert.Equal(t, f.clock.Now(), rec.LastReadAt)
	require.NotNil(t, rec.GroupID)
	assert.Equal(t, groupID, *rec.GroupID)
	assert.NotNil(t, rec.Highlights)
	assert.Empty(t, rec.Highlights)
}

func TestUpsertProgress_ZeroTotalPagesKeepsPercentage(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 0)

	rec, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ProgressPercentage)
	assert.False(t, rec.IsCompleted)

	rec, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{TotalPages: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 50, rec.ProgressPercentage)

	rec, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{TotalPages: intPtr(0), CurrentPage: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, 50, rec.ProgressPercentage, "prior value kept when page count is unknown")
}

func TestUpsertProgress_Rounding(t *testing.T) {
	tests := []struct {
		current, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1},
		{199, 200, 100},
		{150, 100, 100},
	}

	for _, tt := range tests {
		r := &entities.ReadingProgress{CurrentPage: tt.current, TotalPages: tt.total}
		recompute(r, time.Now())
		assert.Equal(t, tt.want, r.ProgressPercentage, "%d/%d", tt.current, tt.total)
		assert.Equal(t, tt.want >= 100, r.IsCompleted, "%d/%d", tt.current, tt.total)
	}
}

func TestUpsertProgress_ExplicitCompletionIsSticky(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)

	rec, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(30), IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, rec.IsCompleted)
	assert.Equal(t, 30, rec.ProgressPercentage)
	require.NotNil(t, rec.CompletionDate)
	first := *rec.CompletionDate

	f.clock.Advance(time.Hour)
	rec, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{IsCompleted: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, rec.IsCompleted, "explicit false does not clear the latch")
	assert.True(t, first.Equal(*rec.CompletionDate))
}

func TestUpsertProgress_Errors(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)

	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), 404, ProgressUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.eng.Progress.UpsertProgress(ctx, Principal{}, book.ID, ProgressUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{TotalTimeRead: intPtr(-5)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.eng.Progress.GetProgress(ctx, 1, book.ID)
	assert.ErrorIs(t, err, ErrNotFound, "failed upserts leave nothing behind")
}

func TestUpsertProgress_RecordsArePerUser(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)

	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{CurrentPage: intPtr(80)})
	require.NoError(t, err)
	rec, err := f.eng.Progress.UpsertProgress(ctx, user(2), book.ID, ProgressUpdate{CurrentPage: intPtr(20)})
	require.NoError(t, err)

	assert.Equal(t, 20, rec.ProgressPercentage)

	first, err := f.eng.Progress.GetProgress(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, first.ProgressPercentage)
}

func TestBookmarks_RoundTrip(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)

	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{})
	require.NoError(t, err)

	_, err = f.eng.Progress.AddBookmark(ctx, user(1), book.ID, Annotation{Page: 40, Content: "proof of lemma 2"})
	require.NoError(t, err)
	added, err := f.eng.Progress.AddBookmark(ctx, user(1), book.ID, Annotation{Page: 12, Content: "definitions"})
	require.NoError(t, err)
	require.Len(t, added, 2)

	got, err := f.eng.Progress.GetBookmarks(ctx, 1, book.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	last := got[len(got)-1]
	assert.Equal(t, 12, last.Page)
	assert.Equal(t, "definitions", last.Content)
	assert.Equal(t, "proof of lemma 2", got[0].Content, "insertion order")
}

func TestAnnotations_RequireProgress(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)
	a := Annotation{Page: 1, Content: "x"}

	_, err := f.eng.Progress.AddBookmark(ctx, user(1), book.ID, a)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.Progress.AddNote(ctx, user(1), book.ID, a)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.Progress.AddHighlight(ctx, user(1), book.ID, a)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.eng.Progress.GetBookmarks(ctx, 1, book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.Progress.GetNotes(ctx, 1, book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.Progress.GetHighlights(ctx, 1, book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnnotations_Validation(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)
	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{})
	require.NoError(t, err)

	_, err = f.eng.Progress.AddNote(ctx, user(1), book.ID, Annotation{Page: -1, Content: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.eng.Progress.AddBookmark(ctx, Principal{}, book.ID, Annotation{Page: 1, Content: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBookmarks_PageOnly(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)
	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{})
	require.NoError(t, err)

	added, err := f.eng.Progress.AddBookmark(ctx, user(1), book.ID, Annotation{Page: 10})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, 10, added[0].Page)
	assert.Empty(t, added[0].Content)

	got, err := f.eng.Progress.GetBookmarks(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)

	notes, err := f.eng.Progress.AddNote(ctx, user(1), book.ID, Annotation{Page: 11})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestHighlights(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)
	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{})
	require.NoError(t, err)

	empty, err := f.eng.Progress.GetHighlights(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = f.eng.Progress.AddHighlight(ctx, user(1), book.ID, Annotation{Page: 3, Content: "entropy"})
	require.NoError(t, err)
	all, err := f.eng.Progress.AddHighlight(ctx, user(1), book.ID, Annotation{Page: 4, Content: "enthalpy", Color: "green"})
	require.NoError(t, err)

	require.Len(t, all, 2)
	assert.Equal(t, entities.DefaultHighlightColor, all[0].Color)
	assert.Equal(t, "green", all[1].Color)
}

func TestNotes(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 100)
	_, err := f.eng.Progress.UpsertProgress(ctx, user(1), book.ID, ProgressUpdate{})
	require.NoError(t, err)

	notes, err := f.eng.Progress.AddNote(ctx, user(1), book.ID, Annotation{Page: 9, Content: "ask in seminar"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, f.clock.Now().Equal(notes[0].CreatedAt))

	rec, err := f.eng.Progress.GetProgress(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.Len(t, rec.Notes, 1)
}
