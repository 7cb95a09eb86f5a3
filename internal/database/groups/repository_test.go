package groups

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/database/dbtest"
	"github.com/mrlokans/studyshelf/internal/entities"
)

func newGroup(name string, creator uint) *entities.Group {
	return &entities.Group{
		Name:        name,
		CreatedByID: creator,
		MaxMembers:  4,
		IsActive:    true,
		Members: []entities.GroupMember{
			{UserID: creator, Role: entities.MemberRoleAdmin, JoinedAt: time.Now()},
		},
		Books: []entities.GroupBook{},
	}
}

func TestRepository_CreateAndGetGroup(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	group := newGroup("Calculus club", 1)
	require.NoError(t, repo.CreateGroup(ctx, group))
	require.NotZero(t, group.ID)

	got, err := repo.GetGroupByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calculus club", got.Name)
	assert.True(t, got.IsActive)
	require.Len(t, got.Members, 1)
	assert.Equal(t, uint(1), got.Members[0].UserID)
	assert.Equal(t, entities.MemberRoleAdmin, got.Members[0].Role)
	assert.Empty(t, got.Books)
}

func TestRepository_GetGroupByID_NotFound(t *testing.T) {
	repo := NewRepository(dbtest.New(t))

	_, err := repo.GetGroupByID(context.Background(), 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Members(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	group := newGroup("g", 1)
	require.NoError(t, repo.CreateGroup(ctx, group))

	for _, uid := range []uint{3, 2} {
		require.NoError(t, repo.AddMember(ctx, &entities.GroupMember{
			GroupID: group.ID, UserID: uid, Role: entities.MemberRoleMember, JoinedAt: time.Now(),
		}))
	}

	got, err := repo.GetGroupByID(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 3)
	assert.Equal(t, []uint{1, 3, 2}, []uint{got.Members[0].UserID, got.Members[1].UserID, got.Members[2].UserID},
		"members come back in insertion order")

	t.Run("duplicate member", func(t *testing.T) {
		err := repo.AddMember(ctx, &entities.GroupMember{GroupID: group.ID, UserID: 2})
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
	})

	t.Run("remove member", func(t *testing.T) {
		require.NoError(t, repo.RemoveMember(ctx, group.ID, 3))
		assert.ErrorIs(t, repo.RemoveMember(ctx, group.ID, 3), gorm.ErrRecordNotFound)
	})
}

func TestRepository_Books(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	group := newGroup("g", 1)
	require.NoError(t, repo.CreateGroup(ctx, group))

	expiry := time.Now().Add(48 * time.Hour)
	require.NoError(t, repo.AddBook(ctx, &entities.GroupBook{GroupID: group.ID, BookID: 10, AddedAt: time.Now(), AccessExpiry: &expiry}))
	require.NoError(t, repo.AddBook(ctx, &entities.GroupBook{GroupID: group.ID, BookID: 11, AddedAt: time.Now()}))

	err := repo.AddBook(ctx, &entities.GroupBook{GroupID: group.ID, BookID: 10})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	got, err := repo.GetGroupByID(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, got.Books, 2)
	assert.Equal(t, uint(10), got.Books[0].BookID)
	assert.NotNil(t, got.Books[0].AccessExpiry)
	assert.Nil(t, got.Books[1].AccessExpiry)

	require.NoError(t, repo.RemoveBook(ctx, group.ID, 10))
	assert.ErrorIs(t, repo.RemoveBook(ctx, group.ID, 10), gorm.ErrRecordNotFound)
}

func TestRepository_ListGroupsForUser(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	first := newGroup("first", 1)
	second := newGroup("second", 2)
	inactive := newGroup("inactive", 1)
	for _, g := range []*entities.Group{first, second, inactive} {
		require.NoError(t, repo.CreateGroup(ctx, g))
	}
	require.NoError(t, repo.AddMember(ctx, &entities.GroupMember{GroupID: second.ID, UserID: 1, Role: entities.MemberRoleMember}))
	require.NoError(t, repo.SetActive(ctx, inactive.ID, false))

	groups, err := repo.ListGroupsForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "first", groups[0].Name)
	assert.Equal(t, "second", groups[1].Name)
	assert.Len(t, groups[1].Members, 2, "members are preloaded")

	none, err := repo.ListGroupsForUser(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
