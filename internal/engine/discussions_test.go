package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/studyshelf/internal/database/discussions"
	"github.com/mrlokans/studyshelf/internal/events"
)

func TestCreateDiscussion(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 200)

	d, err := f.eng.Discussions.CreateDiscussion(ctx, user(1), CreateDiscussionInput{
		BookID:  book.ID,
		Title:   "  Exercise 3.2  ",
		Content: "Is the bound tight?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Exercise 3.2", d.Title)
	assert.Equal(t, uint(1), d.AuthorID)
	assert.Nil(t, d.GroupID)
	assert.NotNil(t, d.Replies)
	assert.Contains(t, f.recorder.Types(), events.DiscussionCreated)

	got, err := f.eng.Discussions.GetDiscussion(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Title, got.Title)
}

func TestCreateDiscussion_Rejections(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 200)
	group := f.group(t, 1, 4)

	tests := []struct {
		name string
		p    Principal
		in   CreateDiscussionInput
		want error
	}{
		{"missing principal", Principal{}, CreateDiscussionInput{BookID: book.ID, Title: "t"}, ErrValidation},
		{"blank title", user(1), CreateDiscussionInput{BookID: book.ID, Title: "  "}, ErrValidation},
		{"missing book", user(1), CreateDiscussionInput{BookID: book.ID + 100, Title: "t"}, ErrNotFound},
		{"missing group", user(1), CreateDiscussionInput{BookID: book.ID, GroupID: uintPtr(group.ID + 100), Title: "t"}, ErrNotFound},
		{"not a member", user(2), CreateDiscussionInput{BookID: book.ID, GroupID: uintPtr(group.ID), Title: "t"}, ErrPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.Discussions.CreateDiscussion(ctx, tt.p, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	page, err := f.eng.Discussions.ListDiscussions(ctx, discussions.Filter{BookID: book.ID})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "rejected discussions are not stored")
}

func TestGroupDiscussion_MembersOnlyWrites(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 200)
	group := f.group(t, 1, 4)
	_, err := f.eng.Groups.JoinGroup(ctx, user(2), group.ID)
	require.NoError(t, err)

	d, err := f.eng.Discussions.CreateDiscussion(ctx, user(1), CreateDiscussionInput{
		BookID:  book.ID,
		GroupID: uintPtr(group.ID),
		Title:   "Week 1 reading",
	})
	require.NoError(t, err)

	reply, err := f.eng.Discussions.AddReply(ctx, user(2), d.ID, "Done with chapter 1")
	require.NoError(t, err)
	assert.Equal(t, uint(2), reply.AuthorID)

	_, err = f.eng.Discussions.AddReply(ctx, user(3), d.ID, "outsider")
	assert.ErrorIs(t, err, ErrPermission)
	_, err = f.eng.Discussions.Like(ctx, user(3), d.ID)
	assert.ErrorIs(t, err, ErrPermission)

	got, err := f.eng.Discussions.GetDiscussion(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "Done with chapter 1", got.Replies[0].Content)
}

func TestAddReply_Rejections(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 200)
	d, err := f.eng.Discussions.CreateDiscussion(ctx, user(1), CreateDiscussionInput{BookID: book.ID, Title: "t"})
	require.NoError(t, err)

	_, err = f.eng.Discussions.AddReply(ctx, user(2), d.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.eng.Discussions.AddReply(ctx, user(2), d.ID+1, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikeAndUnlike(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 200)
	d, err := f.eng.Discussions.CreateDiscussion(ctx, user(1), CreateDiscussionInput{BookID: book.ID, Title: "t"})
	require.NoError(t, err)

	n, err := f.eng.Discussions.Like(ctx, user(2), d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.eng.Discussions.Like(ctx, user(3), d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.eng.Discussions.Like(ctx, user(2), d.ID)
	assert.ErrorIs(t, err, ErrConflict)

	n, err = f.eng.Discussions.Unlike(ctx, user(2), d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.eng.Discussions.Unlike(ctx, user(2), d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.Discussions.Like(ctx, user(2), d.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDiscussions(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	book := f.book(t, 200)
	group := f.group(t, 1, 4)

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		in := CreateDiscussionInput{BookID: book.ID, Title: "open"}
		if i == 2 {
			in.GroupID = uintPtr(group.ID)
			in.Title = "group"
		}
		_, err := f.eng.Discussions.CreateDiscussion(ctx, user(1), in)
		require.NoError(t, err)
	}

	page, err := f.eng.Discussions.ListDiscussions(ctx, discussions.Filter{BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "group", page.Discussions[0].Title, "newest first")

	page, err = f.eng.Discussions.ListDiscussions(ctx, discussions.Filter{BookID: book.ID, GroupID: uintPtr(group.ID)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.eng.Discussions.ListDiscussions(ctx, discussions.Filter{BookID: book.ID + 100})
	assert.ErrorIs(t, err, ErrNotFound)
}
