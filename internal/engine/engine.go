// Package engine enforces group membership and reading progress rules.
//
// The engine is an in-process library. Callers pass an authenticated
// Principal into every mutation; the engine never trusts user identifiers
// taken from request bodies. Every read-validate-write sequence runs under a
// per-entity lock from internal/locker, so concurrent joins on a near-full
// group cannot both pass the capacity check.
//
//	eng := engine.New(engine.Stores{Groups: g, Books: b, Progress: p, Discussions: d}, locks, publisher, 4)
//	group, err := eng.Groups.JoinGroup(ctx, engine.Principal{UserID: 7}, groupID)
//	if errors.Is(err, engine.ErrCapacity) {
//		...
//	}
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrlokans/studyshelf/internal/entities"
	"github.com/mrlokans/studyshelf/internal/events"
	"github.com/mrlokans/studyshelf/internal/locker"
)

// Principal is the authenticated caller of a mutating operation.
type Principal struct {
	UserID uint
}

func (p Principal) validate(op string) error {
	if p.UserID == 0 {
		return newError(KindValidation, op, "authenticated user is required")
	}
	return nil
}

// BookLookup resolves catalog entries.
type BookLookup interface {
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
}

type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func lockKey(ctx context.Context, l locker.Locker, op, key string) (func(), error) {
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire %s: %w", op, key, err)
	}
	return unlock, nil
}

func publisherOrNoop(p events.Publisher) events.Publisher {
	if p == nil {
		return events.Noop{}
	}
	return p
}

// Stores bundles the persistence dependencies of the engine.
type Stores struct {
	Groups      GroupStore
	Books       BookLookup
	Progress    ProgressStore
	Discussions DiscussionStore
}

// Engine groups the engine components behind one value for wiring.
type Engine struct {
	Groups      *MembershipManager
	Progress    *ProgressTracker
	Stats       *StatsAggregator
	Discussions *DiscussionBoard
}

func New(stores Stores, locks locker.Locker, publisher events.Publisher, defaultMaxMembers int, opts ...Option) *Engine {
	return &Engine{
		Groups:      NewMembershipManager(stores.Groups, stores.Books, locks, publisher, defaultMaxMembers, opts...),
		Progress:    NewProgressTracker(stores.Progress, stores.Books, locks, publisher, opts...),
		Stats:       NewStatsAggregator(stores.Progress),
		Discussions: NewDiscussionBoard(stores.Discussions, stores.Books, stores.Groups, publisher, opts...),
	}
}
