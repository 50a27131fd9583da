// internal/session/session.go
//
// Session owns one game: its board, its rendered grid and the loading mode
// of the start/restart control. Every game operation goes through a
// Session; there is no package-level game state.
//
// Start/restart flow:
//
//	idle|ready|failed --start--> loading --load ok--> ready
//	                                     --load err-> failed (trigger re-enabled, error shown)
//
// Each Start bumps the load generation. A load that finishes after a newer
// Start has begun is discarded, so only the newest load can install a board.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/render"
)

// ErrStaleLoad is returned by Start when a newer Start superseded the load.
var ErrStaleLoad = errors.New("session: load superseded by a newer start")

// Mode is the visual mode of the session.
type Mode string

const (
	ModeIdle    Mode = "idle"    // never started
	ModeLoading Mode = "loading" // a load is in flight
	ModeReady   Mode = "ready"   // board shown, cells clickable
	ModeFailed  Mode = "failed"  // last load failed, error shown
)

// Trigger labels for the start/restart control.
const (
	LabelStart   = "Start"
	LabelLoading = "Loading..."
	LabelRestart = "Restart"
)

// Loader builds a fresh board. Implemented by *loader.Loader.
type Loader interface {
	LoadBoard(ctx context.Context, categoryCount, cluesPerCategory int) (*game.Board, error)
}

// Shape is the configured board size.
type Shape struct {
	Categories int `json:"categories"`
	Clues      int `json:"clues"`
}

// View is a snapshot of what the display surface should show.
type View struct {
	ID             string              `json:"id"`
	Mode           Mode                `json:"mode"`
	Trigger        string              `json:"trigger"`
	TriggerEnabled bool                `json:"triggerEnabled"`
	Busy           bool                `json:"busy"`
	Error          string              `json:"error,omitempty"`
	Generation     uint64              `json:"generation"`
	Grid           *render.DisplayGrid `json:"grid,omitempty"`
}

// Session is one game. Safe for concurrent use.
type Session struct {
	id     string
	loader Loader
	shape  Shape

	mu         sync.Mutex
	mode       Mode
	gen        uint64
	loadedOnce bool
	board      *game.Board
	grid       *render.DisplayGrid
	lastErr    string
	lastActive time.Time
	subs       map[chan Update]struct{}
	closed     bool
}

// New constructs an idle session.
func New(id string, l Loader, shape Shape) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		loader:     l,
		shape:      shape,
		mode:       ModeIdle,
		lastActive: now,
		subs:       make(map[chan Update]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// LastActive reports when the session last handled an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View returns a snapshot of the current display state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Start discards the current board and loads a new one.
//
// While the loader runs the session is in loading mode: the trigger is
// disabled and relabeled, the busy indicator is on and the grid is cleared.
// On success the new board is rendered and the trigger reads "Restart". On
// failure the session leaves loading mode, re-enables the trigger and keeps
// the error for display; the error is also returned. If another Start began
// meanwhile, the result is dropped and ErrStaleLoad is returned.
func (s *Session) Start(ctx context.Context) (View, error) {
	s.mu.Lock()
	s.gen++
	token := s.gen
	s.mode = ModeLoading
	s.board = nil
	s.grid = nil
	s.lastErr = ""
	s.lastActive = time.Now()
	loading := s.viewLocked()
	s.publishLocked(Update{Kind: UpdateLoading, Generation: token, View: &loading})
	s.mu.Unlock()

	board, err := s.loader.LoadBoard(ctx, s.shape.Categories, s.shape.Clues)
	if err == nil {
		err = s.checkShape(board)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.gen {
		log.Info().Str("session", s.id).Uint64("generation", token).Uint64("current", s.gen).Msg("discarding stale load")
		return s.viewLocked(), ErrStaleLoad
	}

	if err != nil {
		s.mode = ModeFailed
		s.lastErr = describe(err)
		failed := s.viewLocked()
		s.publishLocked(Update{Kind: UpdateFailed, Generation: token, View: &failed})
		log.Warn().Err(err).Str("session", s.id).Uint64("generation", token).Msg("board load failed")
		return failed, err
	}

	grid := render.Render(board)
	s.board = board
	s.grid = &grid
	s.mode = ModeReady
	s.loadedOnce = true
	ready := s.viewLocked()
	s.publishLocked(Update{Kind: UpdateBoard, Generation: token, View: &ready})
	log.Info().Str("session", s.id).Uint64("generation", token).Msg("board ready")
	return ready, nil
}

// Activate advances the clue at the given coordinate and returns the
// updated cell. It reports false, changing nothing, when no board is ready,
// when generation is non-zero and names an older board, when the coordinate
// is outside the board, or when the clue already shows its answer.
func (s *Session) Activate(at game.Coord, generation uint64) (render.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.mode != ModeReady || s.board == nil {
		return render.Cell{}, false
	}
	if generation != 0 && generation != s.gen {
		log.Debug().Str("session", s.id).Uint64("generation", generation).Uint64("current", s.gen).Msg("ignoring activation for old board")
		return render.Cell{}, false
	}

	r, changed, err := s.board.Activate(at)
	if err != nil {
		log.Debug().Err(err).Str("session", s.id).Msg("ignoring activation")
		return render.Cell{}, false
	}
	if !changed {
		return render.Cell{}, false
	}

	cell := render.Update(r)
	s.grid.Apply(cell)
	s.publishLocked(Update{Kind: UpdateCell, Generation: s.gen, Cell: &cell})
	return cell, true
}

// Close drops every subscriber. Later subscribers get a closed channel.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *Session) checkShape(b *game.Board) error {
	if err := b.Validate(); err != nil {
		return err
	}
	cats, clues := b.Size()
	if cats != s.shape.Categories || clues != s.shape.Clues {
		return fmt.Errorf("session: loader returned a %dx%d board, want %dx%d", cats, clues, s.shape.Categories, s.shape.Clues)
	}
	return nil
}

func (s *Session) viewLocked() View {
	v := View{
		ID:         s.id,
		Mode:       s.mode,
		Generation: s.gen,
		Error:      s.lastErr,
	}
	switch s.mode {
	case ModeLoading:
		v.Trigger = LabelLoading
		v.Busy = true
	case ModeReady:
		v.Trigger = LabelRestart
		v.TriggerEnabled = true
	default:
		v.Trigger = LabelStart
		if s.loadedOnce {
			v.Trigger = LabelRestart
		}
		v.TriggerEnabled = true
	}
	if s.grid != nil {
		g := s.grid.Clone()
		v.Grid = &g
	}
	return v
}

// describe turns a load error into text for the player.
func describe(err error) string {
	var fe *game.FetchError
	var ide *game.InsufficientDataError
	switch {
	case errors.As(err, &fe):
		return "Could not reach the trivia service. Please try again."
	case errors.As(err, &ide):
		return "Not enough trivia to fill the board. Please try again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Loading was interrupted. Please try again."
	}
	return "Something went wrong while loading the board."
}
