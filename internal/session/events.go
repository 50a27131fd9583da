package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/render"
)

// ErrUnknownEvent is returned by Dispatch for event kinds with no handler.
var ErrUnknownEvent = fmt.Errorf("session: unknown event")

// EventKind names a user input event.
type EventKind string

const (
	EventStart    EventKind = "start"    // start/restart control, no payload
	EventActivate EventKind = "activate" // cell clicked, payload At
)

// Event is one user input. Generation, when set, is the board generation
// the client saw when the event fired.
type Event struct {
	Kind       EventKind  `json:"kind"`
	At         game.Coord `json:"at"`
	Generation uint64     `json:"generation,omitempty"`
}

// Result carries what an event produced: a new view for start events, the
// changed cell for activations. Both are nil for a swallowed activation.
type Result struct {
	View *View        `json:"view,omitempty"`
	Cell *render.Cell `json:"cell,omitempty"`
}

type handler func(ctx context.Context, s *Session, ev Event) (Result, error)

// handlers maps each event kind to the operation it drives.
var handlers = map[EventKind]handler{
	EventStart:    handleStart,
	EventActivate: handleActivate,
}

// Dispatch routes ev to its handler.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Result, error) {
	h, ok := handlers[ev.Kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	return h(ctx, s, ev)
}

func handleStart(ctx context.Context, s *Session, _ Event) (Result, error) {
	v, err := s.Start(ctx)
	return Result{View: &v}, err
}

func handleActivate(_ context.Context, s *Session, ev Event) (Result, error) {
	cell, ok := s.Activate(ev.At, ev.Generation)
	if !ok {
		return Result{}, nil
	}
	return Result{Cell: &cell}, nil
}

// UpdateKind names a display command pushed to subscribers.
type UpdateKind string

const (
	UpdateLoading UpdateKind = "loading" // enter loading mode, clear grid
	UpdateBoard   UpdateKind = "board"   // populate the whole grid
	UpdateFailed  UpdateKind = "failed"  // leave loading mode with an error
	UpdateCell    UpdateKind = "cell"    // repaint one cell

	// UpdateSnapshot carries the full view; sent to a surface when it attaches.
	UpdateSnapshot UpdateKind = "snapshot"
)

// Update is a display command for live surfaces.
type Update struct {
	Kind       UpdateKind   `json:"kind"`
	Generation uint64       `json:"generation"`
	View       *View        `json:"view,omitempty"`
	Cell       *render.Cell `json:"cell,omitempty"`
}

const subscriberBuffer = 32

// Snapshot returns the current view as an update, for surfaces that attach
// after the session has started.
func (s *Session) Snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.viewLocked()
	return Update{Kind: UpdateSnapshot, Generation: s.gen, View: &v}
}

// Subscribe registers a live display surface. The channel receives every
// update published after the call and is closed when cancel runs, when the
// session closes, or when the subscriber falls too far behind.
func (s *Session) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// publishLocked fans u out without blocking; slow subscribers are dropped.
func (s *Session) publishLocked(u Update) {
	for ch := range s.subs {
		select {
		case ch <- u:
		default:
			delete(s.subs, ch)
			close(ch)
		}
	}
}
