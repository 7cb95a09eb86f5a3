// Package progress provides database operations for reading progress records
// and their bookmark, note and highlight rows.
package progress

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/entities"
)

// progressColumns are the scalar fields a progress update may change.
var progressColumns = []string{
	"group_id",
	"current_page",
	"total_pages",
	"progress_percentage",
	"total_time_read",
	"is_completed",
	"completion_date",
	"last_read_at",
	"updated_at",
}

// Repository handles all progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func byID(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

// GetProgress retrieves the (user, book) record with its annotations in
// insertion order.
func (r *Repository) GetProgress(ctx context.Context, userID, bookID uint) (*entities.ReadingProgress, error) {
	var p entities.ReadingProgress
	err := r.db.WithContext(ctx).
		Preload("Bookmarks", byID).
		Preload("Notes", byID).
		Preload("Highlights", byID).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProgressID returns the record ID for (user, book) without loading annotations.
func (r *Repository) FindProgressID(ctx context.Context, userID, bookID uint) (uint, error) {
	var p entities.ReadingProgress
	err := r.db.WithContext(ctx).Select("id").
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&p).Error
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// CreateProgress inserts a new record.
func (r *Repository) CreateProgress(ctx context.Context, p *entities.ReadingProgress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// SaveProgress writes the scalar fields of an existing record, zero values included.
// Annotation slices are left alone.
func (r *Repository) SaveProgress(ctx context.Context, p *entities.ReadingProgress) error {
	return r.db.WithContext(ctx).Model(p).Select(progressColumns).Updates(p).Error
}

// ListProgressForUser returns every record of userID in creation order,
// without annotations.
func (r *Repository) ListProgressForUser(ctx context.Context, userID uint) ([]entities.ReadingProgress, error) {
	records := []entities.ReadingProgress{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&records).Error
	return records, err
}

func (r *Repository) AddBookmark(ctx context.Context, b *entities.Bookmark) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) AddNote(ctx context.Context, n *entities.Note) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repository) AddHighlight(ctx context.Context, h *entities.Highlight) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *Repository) ListBookmarks(ctx context.Context, progressID uint) ([]entities.Bookmark, error) {
	out := []entities.Bookmark{}
	err := r.db.WithContext(ctx).Where("progress_id = ?", progressID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *Repository) ListNotes(ctx context.Context, progressID uint) ([]entities.Note, error) {
	out := []entities.Note{}
	err := r.db.WithContext(ctx).Where("progress_id = ?", progressID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *Repository) ListHighlights(ctx context.Context, progressID uint) ([]entities.Highlight, error) {
	out := []entities.Highlight{}
	err := r.db.WithContext(ctx).Where("progress_id = ?", progressID).Order("id ASC").Find(&out).Error
	return out, err
}
