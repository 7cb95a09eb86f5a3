package entities

import "time"

type MemberRole string

const (
	MemberRoleMember MemberRole = "member"
	MemberRoleAdmin  MemberRole = "admin"
)

// Group is a capacity-bounded set of users sharing access to a set of books.
// Members and Books are ordered by insertion.
type Group struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:200" json:"name"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	CreatedByID uint          `gorm:"index" json:"created_by"`
	MaxMembers  int           `json:"max_members"`
	IsActive    bool          `gorm:"index" json:"is_active"`
	Members     []GroupMember `gorm:"foreignKey:GroupID" json:"members"`
	Books       []GroupBook   `gorm:"foreignKey:GroupID" json:"books"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type GroupMember struct {
	ID       uint       `gorm:"primaryKey" json:"-"`
	GroupID  uint       `gorm:"uniqueIndex:idx_group_member" json:"-"`
	UserID   uint       `gorm:"uniqueIndex:idx_group_member;index" json:"user_id"`
	Role     MemberRole `gorm:"size:20" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// GroupBook is a group's grant of access to a book. A nil AccessExpiry never lapses.
type GroupBook struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	GroupID      uint       `gorm:"uniqueIndex:idx_group_book" json:"-"`
	BookID       uint       `gorm:"uniqueIndex:idx_group_book;index" json:"book_id"`
	AddedByID    uint       `json:"added_by,omitempty"`
	AddedAt      time.Time  `json:"added_at"`
	AccessExpiry *time.Time `json:"access_expiry,omitempty"`
}

// Member returns the membership entry for userID, or nil.
func (g *Group) Member(userID uint) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// Book returns the grant for bookID, or nil.
func (g *Group) Book(bookID uint) *GroupBook {
	for i := range g.Books {
		if g.Books[i].BookID == bookID {
			return &g.Books[i]
		}
	}
	return nil
}

// ActiveAt reports whether the grant is still valid at t.
func (b *GroupBook) ActiveAt(t time.Time) bool {
	return b.AccessExpiry == nil || b.AccessExpiry.After(t)
}
