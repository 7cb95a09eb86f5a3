package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/entities"
	"github.com/mrlokans/studyshelf/internal/events"
	"github.com/mrlokans/studyshelf/internal/locker"
)

// ProgressStore persists progress records and their annotation rows.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID, bookID uint) (*entities.ReadingProgress, error)
	FindProgressID(ctx context.Context, userID, bookID uint) (uint, error)
	CreateProgress(ctx context.Context, p *entities.ReadingProgress) error
	SaveProgress(ctx context.Context, p *entities.ReadingProgress) error
	ListProgressForUser(ctx context.Context, userID uint) ([]entities.ReadingProgress, error)

	AddBookmark(ctx context.Context, b *entities.Bookmark) error
	AddNote(ctx context.Context, n *entities.Note) error
	AddHighlight(ctx context.Context, h *entities.Highlight) error
	ListBookmarks(ctx context.Context, progressID uint) ([]entities.Bookmark, error)
	ListNotes(ctx context.Context, progressID uint) ([]entities.Note, error)
	ListHighlights(ctx context.Context, progressID uint) ([]entities.Highlight, error)
}

// ProgressUpdate carries the optional fields of an upsert. Nil means "not
// supplied". TotalTimeRead is added to the stored total, not assigned.
type ProgressUpdate struct {
	CurrentPage   *int
	TotalPages    *int
	TotalTimeRead *int
	IsCompleted   *bool
	GroupID       *uint
}

func (u ProgressUpdate) validate(op string) error {
	fields := []struct {
		name  string
		value *int
	}{
		{"current page", u.CurrentPage},
		{"total pages", u.TotalPages},
		{"total time read", u.TotalTimeRead},
	}
	for _, f := range fields {
		if f.value != nil && *f.value < 0 {
			return newError(KindValidation, op, "%s cannot be negative", f.name)
		}
	}
	return nil
}

// ProgressTracker maintains one progress record per (user, book).
type ProgressTracker struct {
	store  ProgressStore
	books  BookLookup
	locks  locker.Locker
	events events.Publisher
	opts   options
}

func NewProgressTracker(store ProgressStore, books BookLookup, locks locker.Locker, publisher events.Publisher, opts ...Option) *ProgressTracker {
	return &ProgressTracker{
		store:  store,
		books:  books,
		locks:  locks,
		events: publisherOrNoop(publisher),
		opts:   buildOptions(opts),
	}
}

// UpsertProgress finds or creates the principal's record for bookID, applies
// the update and recomputes the derived fields.
func (t *ProgressTracker) UpsertProgress(ctx context.Context, p Principal, bookID uint, upd ProgressUpdate) (*entities.ReadingProgress, error) {
	const op = "upsert progress"
	if err := p.validate(op); err != nil {
		return nil, err
	}
	if err := upd.validate(op); err != nil {
		return nil, err
	}

	book, err := t.books.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, storeError(op, "book", err)
	}

	unlock, err := lockKey(ctx, t.locks, op, locker.ProgressKey(p.UserID, bookID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := t.opts.now()
	record, err := t.store.GetProgress(ctx, p.UserID, bookID)
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	switch {
	case isNew:
		record = newProgress(p.UserID, book, upd.GroupID)
	case err != nil:
		return nil, storeError(op, "progress", err)
	}

	wasCompleted := record.IsCompleted
	applyUpdate(record, upd, now)
	recompute(record, now)
	record.LastReadAt = now

	if isNew {
		err = t.store.CreateProgress(ctx, record)
	} else {
		err = t.store.SaveProgress(ctx, record)
	}
	if err != nil {
		return nil, storeError(op, "progress", err)
	}

	t.events.Publish(ctx, events.Event{Type: events.ProgressUpdated, UserID: p.UserID, BookID: bookID, At: now})
	if record.IsCompleted && !wasCompleted {
		t.opts.logger.Info("Book completed", "user_id", p.UserID, "book_id", bookID)
		t.events.Publish(ctx, events.Event{Type: events.ProgressCompleted, UserID: p.UserID, BookID: bookID, At: now})
	}
	return record, nil
}

func newProgress(userID uint, book *entities.Book, groupID *uint) *entities.ReadingProgress {
	return &entities.ReadingProgress{
		UserID:      userID,
		BookID:      book.ID,
		GroupID:     groupID,
		CurrentPage: 1,
		TotalPages:  book.Pages,
		Bookmarks:   []entities.Bookmark{},
		Notes:       []entities.Note{},
		Highlights:  []entities.Highlight{},
	}
}

func applyUpdate(r *entities.ReadingProgress, upd ProgressUpdate, now time.Time) {
	if upd.CurrentPage != nil {
		r.CurrentPage = *upd.CurrentPage
	}
	if upd.TotalPages != nil {
		r.TotalPages = *upd.TotalPages
	}
	if upd.TotalTimeRead != nil {
		r.TotalTimeRead += *upd.TotalTimeRead
	}
	if r.GroupID == nil && upd.GroupID != nil {
		r.GroupID = upd.GroupID
	}
	// Completion is a latch: an explicit false never clears it.
	if upd.IsCompleted != nil && *upd.IsCompleted {
		markCompleted(r, now)
	}
}

// recompute derives the percentage from the page fields. Without a positive
// page count the previous percentage is kept.
func recompute(r *entities.ReadingProgress, now time.Time) {
	if r.TotalPages <= 0 {
		return
	}
	pct := int(math.Round(float64(r.CurrentPage) / float64(r.TotalPages) * 100))
	r.ProgressPercentage = min(max(pct, 0), 100)
	if r.ProgressPercentage >= 100 {
		markCompleted(r, now)
	}
}

func markCompleted(r *entities.ReadingProgress, now time.Time) {
	r.IsCompleted = true
	if r.CompletionDate == nil {
		at := now
		r.CompletionDate = &at
	}
}

// GetProgress returns the record for (userID, bookID) with its annotations.
func (t *ProgressTracker) GetProgress(ctx context.Context, userID, bookID uint) (*entities.ReadingProgress, error) {
	record, err := t.store.GetProgress(ctx, userID, bookID)
	if err != nil {
		return nil, storeError("get progress", "progress", err)
	}
	return record, nil
}

// Annotation is the input for bookmarks, notes and highlights.
type Annotation struct {
	Page    int
	Content string
	Color   string // highlights only
}

func (a Annotation) validate(op string) error {
	if a.Page < 0 {
		return newError(KindValidation, op, "page cannot be negative")
	}
	return nil
}

// appendAnnotation runs the shared precondition checks and insert for all
// three annotation kinds. insert receives the owning progress record ID.
func (t *ProgressTracker) appendAnnotation(ctx context.Context, op string, p Principal, bookID uint, a Annotation, insert func(progressID uint, now time.Time) error) (uint, error) {
	if err := p.validate(op); err != nil {
		return 0, err
	}
	if err := a.validate(op); err != nil {
		return 0, err
	}

	unlock, err := lockKey(ctx, t.locks, op, locker.ProgressKey(p.UserID, bookID))
	if err != nil {
		return 0, err
	}
	defer unlock()

	progressID, err := t.store.FindProgressID(ctx, p.UserID, bookID)
	if err != nil {
		return 0, storeError(op, "progress", err)
	}

	now := t.opts.now()
	if err := insert(progressID, now); err != nil {
		return 0, storeError(op, "annotation", err)
	}

	t.events.Publish(ctx, events.Event{Type: events.AnnotationAdded, UserID: p.UserID, BookID: bookID, At: now})
	return progressID, nil
}

// AddBookmark appends a bookmark and returns the full sequence.
func (t *ProgressTracker) AddBookmark(ctx context.Context, p Principal, bookID uint, a Annotation) ([]entities.Bookmark, error) {
	const op = "add bookmark"
	progressID, err := t.appendAnnotation(ctx, op, p, bookID, a, func(progressID uint, now time.Time) error {
		return t.store.AddBookmark(ctx, &entities.Bookmark{
			ProgressID: progressID,
			Page:       a.Page,
			Content:    a.Content,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	return t.listBookmarks(ctx, op, progressID)
}

// AddNote appends a note and returns the full sequence.
func (t *ProgressTracker) AddNote(ctx context.Context, p Principal, bookID uint, a Annotation) ([]entities.Note, error) {
	const op = "add note"
	progressID, err := t.appendAnnotation(ctx, op, p, bookID, a, func(progressID uint, now time.Time) error {
		return t.store.AddNote(ctx, &entities.Note{
			ProgressID: progressID,
			Page:       a.Page,
			Content:    a.Content,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	return t.listNotes(ctx, op, progressID)
}

// AddHighlight appends a highlight, yellow unless a color is given, and
// returns the full sequence.
func (t *ProgressTracker) AddHighlight(ctx context.Context, p Principal, bookID uint, a Annotation) ([]entities.Highlight, error) {
	const op = "add highlight"
	color := strings.TrimSpace(a.Color)
	if color == "" {
		color = entities.DefaultHighlightColor
	}
	progressID, err := t.appendAnnotation(ctx, op, p, bookID, a, func(progressID uint, now time.Time) error {
		return t.store.AddHighlight(ctx, &entities.Highlight{
			ProgressID: progressID,
			Page:       a.Page,
			Content:    a.Content,
			Color:      color,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	return t.listHighlights(ctx, op, progressID)
}

func (t *ProgressTracker) GetBookmarks(ctx context.Context, userID, bookID uint) ([]entities.Bookmark, error) {
	const op = "get bookmarks"
	progressID, err := t.store.FindProgressID(ctx, userID, bookID)
	if err != nil {
		return nil, storeError(op, "progress", err)
	}
	return t.listBookmarks(ctx, op, progressID)
}

func (t *ProgressTracker) GetNotes(ctx context.Context, userID, bookID uint) ([]entities.Note, error) {
	const op = "get notes"
	progressID, err := t.store.FindProgressID(ctx, userID, bookID)
	if err != nil {
		return nil, storeError(op, "progress", err)
	}
	return t.listNotes(ctx, op, progressID)
}

func (t *ProgressTracker) GetHighlights(ctx context.Context, userID, bookID uint) ([]entities.Highlight, error) {
	const op = "get highlights"
	progressID, err := t.store.FindProgressID(ctx, userID, bookID)
	if err != nil {
		return nil, storeError(op, "progress", err)
	}
	return t.listHighlights(ctx, op, progressID)
}

func (t *ProgressTracker) listBookmarks(ctx context.Context, op string, progressID uint) ([]entities.Bookmark, error) {
	out, err := t.store.ListBookmarks(ctx, progressID)
	if err != nil {
		return nil, storeError(op, "bookmarks", err)
	}
	return out, nil
}

func (t *ProgressTracker) listNotes(ctx context.Context, op string, progressID uint) ([]entities.Note, error) {
	out, err := t.store.ListNotes(ctx, progressID)
	if err != nil {
		return nil, storeError(op, "notes", err)
	}
	return out, nil
}

func (t *ProgressTracker) listHighlights(ctx context.Context, op string, progressID uint) ([]entities.Highlight, error) {
	out, err := t.store.ListHighlights(ctx, progressID)
	if err != nil {
		return nil, storeError(op, "highlights", err)
	}
	return out, nil
}
