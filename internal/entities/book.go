package entities

import "time"

type BookType string

const (
	BookTypePDF  BookType = "pdf"
	BookTypeEPUB BookType = "epub"
)

const DefaultBookLanguage = "English"

// Book is a catalog entry. Catalog metadata is managed outside the engine,
// which only needs existence and the page count.
type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:512" json:"title"`
	Author      string    `gorm:"index;size:256" json:"author"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Genre       string    `gorm:"index;size:100" json:"genre,omitempty"`
	Language    string    `gorm:"size:50" json:"language"`
	BookType    BookType  `gorm:"size:10" json:"book_type"`
	Pages       int       `json:"pages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
