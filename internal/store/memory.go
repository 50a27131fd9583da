// internal/store/memory.go
//
// In-memory registry of game sessions.
// Every HTTP request and websocket resolves its session here by id.
//
// Characteristics:
//   - Sessions keyed by id in a map guarded by an RWMutex.
//   - State is lost when the process restarts.
//   - Reap evicts sessions idle longer than a cutoff and closes them so
//     live subscribers are released. ScheduleReaper runs it on a cron
//     schedule.

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/session"
)

// ErrNotFound is returned by Get for unknown session ids.
var ErrNotFound = errors.New("store: session not found")

// Store holds live sessions.
type Store interface {
	// Save adds or replaces a session under its id.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes and closes a session. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Reap closes and removes sessions idle for longer than idle and
	// returns how many were removed.
	Reap(idle time.Duration) int

	// Len reports how many sessions are held.
	Len() int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	now      func() time.Time
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*session.Session), now: time.Now}
}

func (m *memory) Save(ctx context.Context, s *session.Session) error {
	if s == nil || s.ID() == "" {
		return errors.New("store: session without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[s.ID()]; ok && old != s {
		old.Close()
	}
	m.sessions[s.ID()] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return nil
}

func (m *memory) Reap(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var stale []*session.Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		log.Info().Int("reaped", len(stale)).Dur("idle", idle).Msg("reaped idle sessions")
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ScheduleReaper returns a scheduler that calls st.Reap(idle) every
// interval, rounded down to whole seconds. The caller starts and stops it.
func ScheduleReaper(st Store, interval, idle time.Duration) (*cron.Cron, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reaper interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %ds", seconds), func() { st.Reap(idle) }); err != nil {
		return nil, fmt.Errorf("schedule reaper: %w", err)
	}
	return c, nil
}
