package engine

import (
	"context"
	"strings"
	"time"

	"github.com/mrlokans/studyshelf/internal/database/discussions"
	"github.com/mrlokans/studyshelf/internal/entities"
	"github.com/mrlokans/studyshelf/internal/events"
)

// DiscussionStore persists discussions with their replies and likes.
type DiscussionStore interface {
	CreateDiscussion(ctx context.Context, d *entities.Discussion) error
	GetDiscussionByID(ctx context.Context, id uint) (*entities.Discussion, error)
	ListDiscussions(ctx context.Context, filter discussions.Filter) (*discussions.Page, error)
	AddReply(ctx context.Context, reply *entities.DiscussionReply) error
	AddLike(ctx context.Context, like *entities.DiscussionLike) error
	RemoveLike(ctx context.Context, discussionID, userID uint, at time.Time) error
	CountLikes(ctx context.Context, discussionID uint) (int64, error)
}

// GroupLookup resolves groups for membership checks.
type GroupLookup interface {
	GetGroupByID(ctx context.Context, id uint) (*entities.Group, error)
}

type CreateDiscussionInput struct {
	BookID  uint
	GroupID *uint // nil for a discussion open to every reader of the book
	Title   string
	Content string
}

// DiscussionBoard manages book discussions. Writes to a group-scoped
// discussion are limited to the group's members.
type DiscussionBoard struct {
	store  DiscussionStore
	books  BookLookup
	groups GroupLookup
	events events.Publisher
	opts   options
}

func NewDiscussionBoard(store DiscussionStore, books BookLookup, groups GroupLookup, publisher events.Publisher, opts ...Option) *DiscussionBoard {
	return &DiscussionBoard{
		store:  store,
		books:  books,
		groups: groups,
		events: publisherOrNoop(publisher),
		opts:   buildOptions(opts),
	}
}

// CreateDiscussion opens a thread about a book.
func (b *DiscussionBoard) CreateDiscussion(ctx context.Context, p Principal, in CreateDiscussionInput) (*entities.Discussion, error) {
	const op = "create discussion"
	if err := p.validate(op); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(KindValidation, op, "title is required")
	}
	if _, err := b.books.GetBookByID(ctx, in.BookID); err != nil {
		return nil, storeError(op, "book", err)
	}
	var groupID uint
	if in.GroupID != nil {
		groupID = *in.GroupID
		if err := b.requireMember(ctx, op, p, groupID); err != nil {
			return nil, err
		}
	}

	now := b.opts.now()
	d := &entities.Discussion{
		BookID:    in.BookID,
		GroupID:   in.GroupID,
		AuthorID:  p.UserID,
		Title:     title,
		Content:   in.Content,
		Replies:   []entities.DiscussionReply{},
		Likes:     []entities.DiscussionLike{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.store.CreateDiscussion(ctx, d); err != nil {
		return nil, storeError(op, "discussion", err)
	}

	b.events.Publish(ctx, events.Event{Type: events.DiscussionCreated, UserID: p.UserID, GroupID: groupID, BookID: in.BookID, At: now})
	return d, nil
}

func (b *DiscussionBoard) GetDiscussion(ctx context.Context, id uint) (*entities.Discussion, error) {
	d, err := b.store.GetDiscussionByID(ctx, id)
	if err != nil {
		return nil, storeError("get discussion", "discussion", err)
	}
	return d, nil
}

// ListDiscussions returns a page of a book's discussions, newest first.
func (b *DiscussionBoard) ListDiscussions(ctx context.Context, filter discussions.Filter) (*discussions.Page, error) {
	const op = "list discussions"
	if _, err := b.books.GetBookByID(ctx, filter.BookID); err != nil {
		return nil, storeError(op, "book", err)
	}
	page, err := b.store.ListDiscussions(ctx, filter)
	if err != nil {
		return nil, storeError(op, "discussions", err)
	}
	return page, nil
}

// AddReply appends a reply and returns it.
func (b *DiscussionBoard) AddReply(ctx context.Context, p Principal, discussionID uint, content string) (*entities.DiscussionReply, error) {
	const op = "add reply"
	if err := p.validate(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, newError(KindValidation, op, "content is required")
	}
	d, err := b.writable(ctx, op, p, discussionID)
	if err != nil {
		return nil, err
	}

	now := b.opts.now()
	reply := &entities.DiscussionReply{
		DiscussionID: discussionID,
		AuthorID:     p.UserID,
		Content:      content,
		CreatedAt:    now,
	}
	if err := b.store.AddReply(ctx, reply); err != nil {
		return nil, storeError(op, "reply", err)
	}

	b.events.Publish(ctx, events.Event{Type: events.DiscussionReplied, UserID: p.UserID, GroupID: derefID(d.GroupID), BookID: d.BookID, At: now})
	return reply, nil
}

// Like records the principal's like and returns the new like count.
func (b *DiscussionBoard) Like(ctx context.Context, p Principal, discussionID uint) (int64, error) {
	const op = "like discussion"
	if err := p.validate(op); err != nil {
		return 0, err
	}
	d, err := b.writable(ctx, op, p, discussionID)
	if err != nil {
		return 0, err
	}
	if d.LikedBy(p.UserID) {
		return 0, newError(KindConflict, op, "user %d already liked discussion %d", p.UserID, discussionID)
	}

	// The unique index still rejects a like racing this check.
	like := &entities.DiscussionLike{DiscussionID: discussionID, UserID: p.UserID, CreatedAt: b.opts.now()}
	if err := b.store.AddLike(ctx, like); err != nil {
		return 0, storeError(op, "like", err)
	}
	return b.countLikes(ctx, op, discussionID)
}

// Unlike removes the principal's like and returns the new like count.
func (b *DiscussionBoard) Unlike(ctx context.Context, p Principal, discussionID uint) (int64, error) {
	const op = "unlike discussion"
	if err := p.validate(op); err != nil {
		return 0, err
	}
	if _, err := b.writable(ctx, op, p, discussionID); err != nil {
		return 0, err
	}
	if err := b.store.RemoveLike(ctx, discussionID, p.UserID, b.opts.now()); err != nil {
		return 0, storeError(op, "like", err)
	}
	return b.countLikes(ctx, op, discussionID)
}

// writable loads the discussion and checks group membership for group
// discussions.
func (b *DiscussionBoard) writable(ctx context.Context, op string, p Principal, discussionID uint) (*entities.Discussion, error) {
	d, err := b.store.GetDiscussionByID(ctx, discussionID)
	if err != nil {
		return nil, storeError(op, "discussion", err)
	}
	if d.GroupID != nil {
		if err := b.requireMember(ctx, op, p, *d.GroupID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (b *DiscussionBoard) requireMember(ctx context.Context, op string, p Principal, groupID uint) error {
	group, err := b.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return storeError(op, "group", err)
	}
	if group.Member(p.UserID) == nil {
		return newError(KindPermission, op, "user %d is not a member of group %d", p.UserID, groupID)
	}
	return nil
}

func (b *DiscussionBoard) countLikes(ctx context.Context, op string, discussionID uint) (int64, error) {
	n, err := b.store.CountLikes(ctx, discussionID)
	if err != nil {
		return 0, storeError(op, "likes", err)
	}
	return n, nil
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
