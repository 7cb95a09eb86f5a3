package entities

import "time"

// Discussion is a thread about a book, optionally scoped to a study group.
// Replies and Likes are ordered by insertion.
type Discussion struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	BookID    uint              `gorm:"index" json:"book_id"`
	GroupID   *uint             `gorm:"index" json:"group_id,omitempty"`
	AuthorID  uint              `gorm:"index" json:"author_id"`
	Title     string            `gorm:"size:300" json:"title"`
	Content   string            `gorm:"type:text" json:"content"`
	Replies   []DiscussionReply `gorm:"foreignKey:DiscussionID" json:"replies"`
	Likes     []DiscussionLike  `gorm:"foreignKey:DiscussionID" json:"likes"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type DiscussionReply struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"index" json:"-"`
	AuthorID     uint      `gorm:"index" json:"author_id"`
	Content      string    `gorm:"type:text" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// DiscussionLike is one user's like. A user likes a discussion at most once.
type DiscussionLike struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	DiscussionID uint      `gorm:"uniqueIndex:idx_discussion_like" json:"-"`
	UserID       uint      `gorm:"uniqueIndex:idx_discussion_like;index" json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// LikedBy reports whether userID has liked the discussion.
func (d *Discussion) LikedBy(userID uint) bool {
	for _, l := range d.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
