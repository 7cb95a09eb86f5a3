package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/database/books"
	"github.com/mrlokans/studyshelf/internal/database/dbtest"
	"github.com/mrlokans/studyshelf/internal/database/discussions"
	"github.com/mrlokans/studyshelf/internal/database/groups"
	"github.com/mrlokans/studyshelf/internal/database/progress"
	"github.com/mrlokans/studyshelf/internal/entities"
	"github.com/mrlokans/studyshelf/internal/events"
	"github.com/mrlokans/studyshelf/internal/locker"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db       *gorm.DB
	eng      *Engine
	books    *books.Repository
	groups   *groups.Repository
	recorder *events.Recorder
	clock    *fakeClock
}

func setupEngine(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{
		db:       db,
		books:    books.NewRepository(db),
		groups:   groups.NewRepository(db),
		recorder: &events.Recorder{},
		clock:    &fakeClock{now: time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)},
	}
	f.eng = New(
		Stores{
			Groups:      f.groups,
			Books:       f.books,
			Progress:    progress.NewRepository(db),
			Discussions: discussions.NewRepository(db),
		},
		locker.NewMemory(),
		f.recorder,
		4,
		WithClock(f.clock.Now),
	)
	return f
}

func (f *fixture) book(t *testing.T, pages int) *entities.Book {
	t.Helper()
	b := &entities.Book{Title: "Book", Author: "Author", Pages: pages}
	require.NoError(t, f.books.CreateBook(t.Context(), b))
	return b
}

func (f *fixture) group(t *testing.T, creator uint, maxMembers int) *entities.Group {
	t.Helper()
	g, err := f.eng.Groups.CreateGroup(t.Context(), Principal{UserID: creator}, CreateGroupInput{
		Name:       "Study group",
		MaxMembers: &maxMembers,
	})
	require.NoError(t, err)
	return g
}

func user(id uint) Principal { return Principal{UserID: id} }

func intPtr(v int) *int    { return &v }
func uintPtr(v uint) *uint { return &v }
func boolPtr(v bool) *bool { return &v }
