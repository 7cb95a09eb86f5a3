package entities

import "time"

const DefaultHighlightColor = "yellow"

// ReadingProgress is the unique per-(user, book) reading state.
type ReadingProgress struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	UserID             uint        `gorm:"uniqueIndex:idx_progress_user_book" json:"user_id"`
	BookID             uint        `gorm:"uniqueIndex:idx_progress_user_book;index" json:"book_id"`
	GroupID            *uint       `gorm:"index" json:"group_id,omitempty"`
	CurrentPage        int         `json:"current_page"`
	TotalPages         int         `json:"total_pages"`
	ProgressPercentage int         `json:"progress_percentage"`
	TotalTimeRead      int         `json:"total_time_read"` // minutes
	IsCompleted        bool        `json:"is_completed"`
	CompletionDate     *time.Time  `json:"completion_date,omitempty"`
	LastReadAt         time.Time   `json:"last_read_at"`
	Bookmarks          []Bookmark  `gorm:"foreignKey:ProgressID" json:"bookmarks"`
	Notes              []Note      `gorm:"foreignKey:ProgressID" json:"notes"`
	Highlights         []Highlight `gorm:"foreignKey:ProgressID" json:"highlights"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type Bookmark struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProgressID uint      `gorm:"index" json:"-"`
	Page       int       `json:"page"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type Note struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProgressID uint      `gorm:"index" json:"-"`
	Page       int       `json:"page"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Highlight struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProgressID uint      `gorm:"index" json:"-"`
	Page       int       `json:"page"`
	Content    string    `gorm:"type:text" json:"content"`
	Color      string    `gorm:"size:20" json:"color"`
	CreatedAt  time.Time `json:"created_at"`
}
