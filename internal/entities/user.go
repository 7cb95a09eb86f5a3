package entities

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Name         string   `gorm:"size:100" json:"name"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string   `gorm:"size:255" json:"-"`
	Role         UserRole `gorm:"size:20" json:"role"`
	Institution  string   `gorm:"size:256" json:"institution,omitempty"`

	// Reading summary, refreshed in the background from progress records
	BooksRead          int        `json:"books_read"`
	ReadingMinutes     int        `json:"reading_minutes"`
	SummaryRefreshedAt *time.Time `json:"summary_refreshed_at,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
