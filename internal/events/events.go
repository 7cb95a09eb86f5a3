// Package events carries after-commit domain events from the engine to
// side consumers (metrics, background tasks, NATS).
//
// Publishing never fails the originating operation: a Publisher logs its
// own delivery errors.
package events

import (
	"context"
	"sync"
	"time"
)

type Type string

const (
	GroupCreated      Type = "group.created"
	GroupMemberJoined Type = "group.member_joined"
	GroupMemberLeft   Type = "group.member_left"
	GroupBookAdded    Type = "group.book_added"
	GroupBookRemoved  Type = "group.book_removed"
	GroupDeactivated  Type = "group.deactivated"
	ProgressUpdated   Type = "progress.updated"
	ProgressCompleted Type = "progress.completed"
	AnnotationAdded   Type = "progress.annotation_added"
	DiscussionCreated Type = "discussion.created"
	DiscussionReplied Type = "discussion.replied"
)

type Event struct {
	Type    Type      `json:"type"`
	UserID  uint      `json:"user_id"`
	GroupID uint      `json:"group_id,omitempty"`
	BookID  uint      `json:"book_id,omitempty"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
