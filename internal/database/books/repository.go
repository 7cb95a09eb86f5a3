// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(ctx, 123)
//	page, err := repo.ListBooks(ctx, books.Filter{Genre: "Physics", Limit: 20})
//	err = repo.DeleteBook(ctx, 123) // books.ErrBookInUse while groups or progress reference it
package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/entities"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrBookInUse is returned when deleting a book that a group grants or that
// has reading progress.
var ErrBookInUse = errors.New("book is referenced by groups or reading progress")

// Filter narrows a catalog listing. Page is 1-based.
type Filter struct {
	Genre  string
	Search string
	Page   int
	Limit  int
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

// Page is one slice of a catalog listing.
type Page struct {
	Books []entities.Book `json:"books"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a catalog entry, filling language and type defaults.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	if book.Language == "" {
		book.Language = entities.DefaultBookLanguage
	}
	if book.BookType == "" {
		book.BookType = entities.BookTypePDF
	}
	return r.db.WithContext(ctx).Create(book).Error
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns a page of the catalog, newest first. Search matches
// title or author case-insensitively.
func (r *Repository) ListBooks(ctx context.Context, filter Filter) (*Page, error) {
	filter = filter.normalized()

	query := r.db.WithContext(ctx).Model(&entities.Book{})
	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	books := []entities.Book{}
	err := query.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&books).Error
	if err != nil {
		return nil, err
	}

	return &Page{Books: books, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateBook replaces the catalog fields of an existing book, filling the
// same defaults as CreateBook. It returns gorm.ErrRecordNotFound for an
// unknown ID.
func (r *Repository) UpdateBook(ctx context.Context, book *entities.Book) error {
	if book.Language == "" {
		book.Language = entities.DefaultBookLanguage
	}
	if book.BookType == "" {
		book.BookType = entities.BookTypePDF
	}
	result := r.db.WithContext(ctx).
		Model(&entities.Book{ID: book.ID}).
		Select("title", "author", "description", "genre", "language", "book_type", "pages", "updated_at").
		Updates(book)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteBook removes a book and its discussions. Books still granted by a
// group or tracked in reading progress are kept and ErrBookInUse returned.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&entities.GroupBook{}).Where("book_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs == 0 {
			if err := tx.Model(&entities.ReadingProgress{}).Where("book_id = ?", id).Count(&refs).Error; err != nil {
				return err
			}
		}
		if refs > 0 {
			return ErrBookInUse
		}

		discussionIDs := tx.Model(&entities.Discussion{}).Select("id").Where("book_id = ?", id)
		if err := tx.Where("discussion_id IN (?)", discussionIDs).Delete(&entities.DiscussionReply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("discussion_id IN (?)", discussionIDs).Delete(&entities.DiscussionLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Discussion{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
