// Package groups provides database operations for study groups, their
// membership rows and their book grants.
//
// The repository does not enforce capacity or ownership rules. Those live in
// the engine, which serializes read-validate-write sequences per group.
// Uniqueness of (group, user) and (group, book) is backed by unique indexes.
package groups

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/entities"
)

// Repository handles all group database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new groups repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func preloadOrdered(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	return db.Preload("Members", byID).Preload("Books", byID)
}

// CreateGroup inserts the group together with its initial member rows.
func (r *Repository) CreateGroup(ctx context.Context, group *entities.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// GetGroupByID retrieves a group with members and books in insertion order.
func (r *Repository) GetGroupByID(ctx context.Context, id uint) (*entities.Group, error) {
	var group entities.Group
	if err := preloadOrdered(r.db.WithContext(ctx)).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroupsForUser returns the active groups userID belongs to, oldest first.
func (r *Repository) ListGroupsForUser(ctx context.Context, userID uint) ([]entities.Group, error) {
	groups := []entities.Group{}
	err := preloadOrdered(r.db.WithContext(ctx)).
		Where("is_active = ?", true).
		Where("id IN (?)", r.db.Model(&entities.GroupMember{}).Select("group_id").Where("user_id = ?", userID)).
		Order("created_at ASC, id ASC").
		Find(&groups).Error
	return groups, err
}

// AddMember inserts a membership row.
func (r *Repository) AddMember(ctx context.Context, member *entities.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// RemoveMember deletes a membership row. Returns gorm.ErrRecordNotFound if
// there was nothing to delete.
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&entities.GroupMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddBook inserts a book grant.
func (r *Repository) AddBook(ctx context.Context, grant *entities.GroupBook) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

// RemoveBook deletes a book grant. Returns gorm.ErrRecordNotFound if the
// book was not granted.
func (r *Repository) RemoveBook(ctx context.Context, groupID, bookID uint) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND book_id = ?", groupID, bookID).
		Delete(&entities.GroupBook{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *Repository) SetActive(ctx context.Context, groupID uint, active bool) error {
	return r.db.WithContext(ctx).Model(&entities.Group{}).
		Where("id = ?", groupID).
		Update("is_active", active).Error
}
