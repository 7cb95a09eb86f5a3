package engine

import (
	"context"
	"strings"
	"time"

	"github.com/mrlokans/studyshelf/internal/entities"
	"github.com/mrlokans/studyshelf/internal/events"
	"github.com/mrlokans/studyshelf/internal/locker"
)

// GroupStore persists groups with their member and book rows.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *entities.Group) error
	GetGroupByID(ctx context.Context, id uint) (*entities.Group, error)
	ListGroupsForUser(ctx context.Context, userID uint) ([]entities.Group, error)
	AddMember(ctx context.Context, member *entities.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uint) error
	AddBook(ctx context.Context, grant *entities.GroupBook) error
	RemoveBook(ctx context.Context, groupID, bookID uint) error
	SetActive(ctx context.Context, groupID uint, active bool) error
}

type CreateGroupInput struct {
	Name        string
	Description string
	MaxMembers  *int // nil uses the configured default
}

// MembershipManager enforces capacity, role and uniqueness rules on group
// membership and on the books a group grants access to.
type MembershipManager struct {
	groups            GroupStore
	books             BookLookup
	locks             locker.Locker
	events            events.Publisher
	defaultMaxMembers int
	opts              options
}

func NewMembershipManager(groups GroupStore, books BookLookup, locks locker.Locker, publisher events.Publisher, defaultMaxMembers int, opts ...Option) *MembershipManager {
	if defaultMaxMembers < 1 {
		defaultMaxMembers = 4
	}
	return &MembershipManager{
		groups:            groups,
		books:             books,
		locks:             locks,
		events:            publisherOrNoop(publisher),
		defaultMaxMembers: defaultMaxMembers,
		opts:              buildOptions(opts),
	}
}

// CreateGroup creates a group with the principal enrolled as its sole admin.
func (m *MembershipManager) CreateGroup(ctx context.Context, p Principal, in CreateGroupInput) (*entities.Group, error) {
	const op = "create group"
	if err := p.validate(op); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(KindValidation, op, "name is required")
	}
	maxMembers := m.defaultMaxMembers
	if in.MaxMembers != nil {
		if *in.MaxMembers < 1 {
			return nil, newError(KindValidation, op, "max members must be at least 1")
		}
		maxMembers = *in.MaxMembers
	}

	now := m.opts.now()
	group := &entities.Group{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedByID: p.UserID,
		MaxMembers:  maxMembers,
		IsActive:    true,
		Members: []entities.GroupMember{
			{UserID: p.UserID, Role: entities.MemberRoleAdmin, JoinedAt: now},
		},
		Books: []entities.GroupBook{},
	}
	if err := m.groups.CreateGroup(ctx, group); err != nil {
		return nil, storeError(op, "group", err)
	}

	m.opts.logger.Info("Group created", "group_id", group.ID, "created_by", p.UserID, "max_members", maxMembers)
	m.events.Publish(ctx, events.Event{Type: events.GroupCreated, UserID: p.UserID, GroupID: group.ID, At: now})
	return group, nil
}

// JoinGroup enrolls the principal as a member.
func (m *MembershipManager) JoinGroup(ctx context.Context, p Principal, groupID uint) (*entities.Group, error) {
	const op = "join group"
	if err := p.validate(op); err != nil {
		return nil, err
	}

	unlock, err := lockKey(ctx, m.locks, op, locker.GroupKey(groupID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := m.loadGroup(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, newError(KindInvariant, op, "group %d is not active", groupID)
	}
	if group.Member(p.UserID) != nil {
		return nil, newError(KindConflict, op, "user %d is already a member of group %d", p.UserID, groupID)
	}
	if len(group.Members) >= group.MaxMembers {
		return nil, newError(KindCapacity, op, "group %d is full (%d members)", groupID, group.MaxMembers)
	}

	now := m.opts.now()
	member := entities.GroupMember{
		GroupID:  groupID,
		UserID:   p.UserID,
		Role:     entities.MemberRoleMember,
		JoinedAt: now,
	}
	if err := m.groups.AddMember(ctx, &member); err != nil {
		return nil, storeError(op, "membership", err)
	}
	group.Members = append(group.Members, member)

	m.events.Publish(ctx, events.Event{Type: events.GroupMemberJoined, UserID: p.UserID, GroupID: groupID, At: now})
	return group, nil
}

// LeaveGroup removes the principal's membership. A sole admin who is also
// the only member cannot leave; the group has to be deactivated instead.
func (m *MembershipManager) LeaveGroup(ctx context.Context, p Principal, groupID uint) (*entities.Group, error) {
	const op = "leave group"
	if err := p.validate(op); err != nil {
		return nil, err
	}

	unlock, err := lockKey(ctx, m.locks, op, locker.GroupKey(groupID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := m.loadGroup(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	member := group.Member(p.UserID)
	if member == nil {
		return nil, newError(KindNotFound, op, "user %d is not a member of group %d", p.UserID, groupID)
	}
	if member.Role == entities.MemberRoleAdmin && len(group.Members) == 1 {
		return nil, newError(KindInvariant, op, "sole admin cannot leave group %d; deactivate it instead", groupID)
	}

	if err := m.groups.RemoveMember(ctx, groupID, p.UserID); err != nil {
		return nil, storeError(op, "membership", err)
	}
	group.Members = removeMember(group.Members, p.UserID)

	m.events.Publish(ctx, events.Event{Type: events.GroupMemberLeft, UserID: p.UserID, GroupID: groupID, At: m.opts.now()})
	return group, nil
}

// AddBookToGroup grants the group access to a book, optionally for a
// limited number of days.
func (m *MembershipManager) AddBookToGroup(ctx context.Context, p Principal, groupID, bookID uint, accessDays *int) (*entities.Group, error) {
	const op = "add book to group"
	if err := p.validate(op); err != nil {
		return nil, err
	}
	if accessDays != nil && *accessDays < 1 {
		return nil, newError(KindValidation, op, "access days must be at least 1")
	}

	unlock, err := lockKey(ctx, m.locks, op, locker.GroupKey(groupID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := m.loadGroup(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := m.books.GetBookByID(ctx, bookID); err != nil {
		return nil, storeError(op, "book", err)
	}
	if group.Book(bookID) != nil {
		return nil, newError(KindConflict, op, "book %d is already in group %d", bookID, groupID)
	}

	now := m.opts.now()
	grant := entities.GroupBook{
		GroupID:   groupID,
		BookID:    bookID,
		AddedByID: p.UserID,
		AddedAt:   now,
	}
	if accessDays != nil {
		expiry := now.Add(time.Duration(*accessDays) * 24 * time.Hour)
		grant.AccessExpiry = &expiry
	}
	if err := m.groups.AddBook(ctx, &grant); err != nil {
		return nil, storeError(op, "group book", err)
	}
	group.Books = append(group.Books, grant)

	m.events.Publish(ctx, events.Event{Type: events.GroupBookAdded, UserID: p.UserID, GroupID: groupID, BookID: bookID, At: now})
	return group, nil
}

// RemoveBookFromGroup revokes a book grant.
func (m *MembershipManager) RemoveBookFromGroup(ctx context.Context, p Principal, groupID, bookID uint) (*entities.Group, error) {
	const op = "remove book from group"
	if err := p.validate(op); err != nil {
		return nil, err
	}

	unlock, err := lockKey(ctx, m.locks, op, locker.GroupKey(groupID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := m.loadGroup(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	if group.Book(bookID) == nil {
		return nil, newError(KindNotFound, op, "book %d is not in group %d", bookID, groupID)
	}

	if err := m.groups.RemoveBook(ctx, groupID, bookID); err != nil {
		return nil, storeError(op, "group book", err)
	}
	group.Books = removeBook(group.Books, bookID)

	m.events.Publish(ctx, events.Event{Type: events.GroupBookRemoved, UserID: p.UserID, GroupID: groupID, BookID: bookID, At: m.opts.now()})
	return group, nil
}

// DeactivateGroup soft-deletes a group. Only group admins may do this;
// deactivating an inactive group is a no-op.
func (m *MembershipManager) DeactivateGroup(ctx context.Context, p Principal, groupID uint) (*entities.Group, error) {
	const op = "deactivate group"
	if err := p.validate(op); err != nil {
		return nil, err
	}

	unlock, err := lockKey(ctx, m.locks, op, locker.GroupKey(groupID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := m.loadGroup(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	member := group.Member(p.UserID)
	if member == nil || member.Role != entities.MemberRoleAdmin {
		return nil, newError(KindPermission, op, "only a group admin can deactivate group %d", groupID)
	}
	if !group.IsActive {
		return group, nil
	}

	if err := m.groups.SetActive(ctx, groupID, false); err != nil {
		return nil, storeError(op, "group", err)
	}
	group.IsActive = false

	m.opts.logger.Info("Group deactivated", "group_id", groupID, "by", p.UserID)
	m.events.Publish(ctx, events.Event{Type: events.GroupDeactivated, UserID: p.UserID, GroupID: groupID, At: m.opts.now()})
	return group, nil
}

func (m *MembershipManager) GetGroup(ctx context.Context, groupID uint) (*entities.Group, error) {
	return m.loadGroup(ctx, "get group", groupID)
}

// ListGroupsForUser returns the active groups userID belongs to.
func (m *MembershipManager) ListGroupsForUser(ctx context.Context, userID uint) ([]entities.Group, error) {
	groups, err := m.groups.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, storeError("list groups", "groups", err)
	}
	return groups, nil
}

// CheckBookAccess loads the group and reports whether it currently grants bookID.
func (m *MembershipManager) CheckBookAccess(ctx context.Context, groupID, bookID uint) (bool, error) {
	group, err := m.loadGroup(ctx, "check book access", groupID)
	if err != nil {
		return false, err
	}
	return HasBookAccess(group, bookID, m.opts.now()), nil
}

// HasBookAccess reports whether group lists bookID with an unexpired grant
// at now. Expired grants stay listed; they are only filtered here.
func HasBookAccess(group *entities.Group, bookID uint, now time.Time) bool {
	grant := group.Book(bookID)
	return grant != nil && grant.ActiveAt(now)
}

func (m *MembershipManager) loadGroup(ctx context.Context, op string, groupID uint) (*entities.Group, error) {
	group, err := m.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, storeError(op, "group", err)
	}
	return group, nil
}

func removeMember(members []entities.GroupMember, userID uint) []entities.GroupMember {
	out := members[:0]
	for _, mem := range members {
		if mem.UserID != userID {
			out = append(out, mem)
		}
	}
	return out
}

func removeBook(books []entities.GroupBook, bookID uint) []entities.GroupBook {
	out := books[:0]
	for _, b := range books {
		if b.BookID != bookID {
			out = append(out, b)
		}
	}
	return out
}
