// Package discussions provides database operations for book discussions,
// their replies and likes.
//
// One like per (discussion, user) is backed by a unique index.
package discussions

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/entities"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter selects discussions about one book. A nil GroupID lists every
// discussion of the book. Page is 1-based.
type Filter struct {
	BookID  uint
	GroupID *uint
	Page    int
	Limit   int
}

func (f Filter) normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Page is one slice of a discussion listing, newest first.
type Page struct {
	Discussions []entities.Discussion `json:"discussions"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func preloadOrdered(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	return db.Preload("Replies", byID).Preload("Likes", byID)
}

func (r *Repository) CreateDiscussion(ctx context.Context, d *entities.Discussion) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// GetDiscussionByID retrieves a discussion with replies and likes.
func (r *Repository) GetDiscussionByID(ctx context.Context, id uint) (*entities.Discussion, error) {
	var d entities.Discussion
	if err := preloadOrdered(r.db.WithContext(ctx)).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) ListDiscussions(ctx context.Context, filter Filter) (*Page, error) {
	filter = filter.normalized()

	query := r.db.WithContext(ctx).Model(&entities.Discussion{}).Where("book_id = ?", filter.BookID)
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	discussions := []entities.Discussion{}
	err := preloadOrdered(query).
		Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&discussions).Error
	if err != nil {
		return nil, err
	}

	return &Page{Discussions: discussions, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// AddReply inserts the reply and bumps the discussion's updated_at.
func (r *Repository) AddReply(ctx context.Context, reply *entities.DiscussionReply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return touch(tx, reply.DiscussionID, reply.CreatedAt)
	})
}

func (r *Repository) AddLike(ctx context.Context, like *entities.DiscussionLike) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(like).Error; err != nil {
			return err
		}
		return touch(tx, like.DiscussionID, like.CreatedAt)
	})
}

// RemoveLike deletes userID's like. It returns gorm.ErrRecordNotFound when
// there is none.
func (r *Repository) RemoveLike(ctx context.Context, discussionID, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("discussion_id = ? AND user_id = ?", discussionID, userID).Delete(&entities.DiscussionLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return touch(tx, discussionID, at)
	})
}

func (r *Repository) CountLikes(ctx context.Context, discussionID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.DiscussionLike{}).Where("discussion_id = ?", discussionID).Count(&n).Error
	return n, err
}

func touch(tx *gorm.DB, discussionID uint, at time.Time) error {
	return tx.Model(&entities.Discussion{}).Where("id = ?", discussionID).UpdateColumn("updated_at", at).Error
}
