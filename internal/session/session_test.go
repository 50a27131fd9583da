package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/render"
)

// stubLoader returns boards built from a counter so successive loads differ.
type stubLoader struct {
	calls int
	err   error
}

func (l *stubLoader) LoadBoard(ctx context.Context, categories, clues int) (*game.Board, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return testBoard(l.calls, categories, clues), nil
}

func testBoard(tag, categories, clues int) *game.Board {
	b := &game.Board{CluesPerCategory: clues}
	for c := 0; c < categories; c++ {
		cat := game.Category{Title: fmt.Sprintf("load%d cat%d", tag, c)}
		for i := 0; i < clues; i++ {
			cat.Clues = append(cat.Clues, game.NewClue(fmt.Sprintf("q%d.%d.%d", tag, c, i), fmt.Sprintf("a%d.%d.%d", tag, c, i)))
		}
		b.Categories = append(b.Categories, cat)
	}
	return b
}

// gatedLoader blocks each load until the test releases it.
type gatedLoader struct {
	started chan int
	release map[int]chan loadResult
	n       int
}

type loadResult struct {
	board *game.Board
	err   error
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{started: make(chan int, 4), release: make(map[int]chan loadResult)}
}

func (g *gatedLoader) gate(n int) chan loadResult {
	if _, ok := g.release[n]; !ok {
		g.release[n] = make(chan loadResult, 1)
	}
	return g.release[n]
}

func (g *gatedLoader) LoadBoard(ctx context.Context, categories, clues int) (*game.Board, error) {
	g.n++
	n := g.n
	ch := g.gate(n)
	g.started <- n
	r := <-ch
	return r.board, r.err
}

var shape = Shape{Categories: 6, Clues: 5}

func TestStartProducesHiddenBoard(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)

	if v := s.View(); v.Mode != ModeIdle || v.Trigger != LabelStart || !v.TriggerEnabled || v.Grid != nil {
		t.Fatalf("unexpected idle view: %+v", v)
	}

	v, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.Mode != ModeReady || v.Trigger != LabelRestart || v.Busy || v.Generation != 1 {
		t.Fatalf("unexpected ready view: %+v", v)
	}
	if len(v.Grid.Headers) != 6 || len(v.Grid.Rows) != 5 {
		t.Fatalf("expected 6x5 grid, got %dx%d", len(v.Grid.Headers), len(v.Grid.Rows))
	}
	for _, row := range v.Grid.Rows {
		for _, c := range row {
			if c.Showing != game.ShowingHidden || c.Text != render.Placeholder {
				t.Fatalf("expected hidden placeholder, got %+v", c)
			}
		}
	}
}

func TestActivateThroughSession(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)
	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	at := game.Coord{Category: 2, Clue: 3}

	cell, ok := s.Activate(at, 0)
	if !ok || cell.Text != "q1.2.3" || cell.Showing != game.ShowingQuestion {
		t.Fatalf("first activation: %+v ok=%v", cell, ok)
	}
	cell, ok = s.Activate(at, 1)
	if !ok || cell.Text != "a1.2.3" || cell.Showing != game.ShowingAnswer {
		t.Fatalf("second activation: %+v ok=%v", cell, ok)
	}
	if _, ok := s.Activate(at, 1); ok {
		t.Fatal("third activation should be a no-op")
	}

	g := s.View().Grid
	for i, row := range g.Rows {
		for c, cell := range row {
			want := game.ShowingHidden
			if (game.Coord{Category: c, Clue: i}) == at {
				want = game.ShowingAnswer
			}
			if cell.Showing != want {
				t.Fatalf("cell %d-%d: expected %q, got %q", c, i, want, cell.Showing)
			}
		}
	}
}

func TestActivateIgnoresBadInput(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)

	if _, ok := s.Activate(game.Coord{}, 0); ok {
		t.Fatal("activation before start should be ignored")
	}

	s.Start(context.Background())
	if _, ok := s.Activate(game.Coord{Category: 6, Clue: 0}, 0); ok {
		t.Fatal("out-of-range activation should be ignored")
	}
	if _, ok := s.Activate(game.Coord{Category: -1, Clue: 0}, 0); ok {
		t.Fatal("negative activation should be ignored")
	}
	if _, ok := s.Activate(game.Coord{}, 99); ok {
		t.Fatal("activation for another generation should be ignored")
	}
}

func TestRestartDiscardsRevealedState(t *testing.T) {
	l := &stubLoader{}
	s := New("s1", l, shape)
	s.Start(context.Background())
	s.Activate(game.Coord{Category: 0, Clue: 0}, 0)
	s.Activate(game.Coord{Category: 0, Clue: 0}, 0)
	s.Activate(game.Coord{Category: 3, Clue: 4}, 0)

	v, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if v.Generation != 2 {
		t.Fatalf("expected generation 2, got %d", v.Generation)
	}
	for _, row := range v.Grid.Rows {
		for _, c := range row {
			if c.Showing != game.ShowingHidden {
				t.Fatalf("expected every clue hidden after restart, got %+v", c)
			}
		}
	}
	if v.Grid.Headers[0] != "load2 cat0" {
		t.Fatalf("expected new board, got header %q", v.Grid.Headers[0])
	}

	// A click wired to the first board's generation is dropped.
	if _, ok := s.Activate(game.Coord{}, 1); ok {
		t.Fatal("stale activation should be ignored")
	}
}

func TestFailedLoadLeavesLoadingMode(t *testing.T) {
	boom := &game.FetchError{Op: "list categories", Err: errors.New("dial tcp: refused")}
	l := &stubLoader{err: boom}
	s := New("s1", l, shape)

	v, err := s.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if v.Mode != ModeFailed || v.Busy || !v.TriggerEnabled || v.Trigger != LabelStart {
		t.Fatalf("unexpected failed view: %+v", v)
	}
	if v.Error == "" || v.Grid != nil {
		t.Fatalf("expected visible error and no grid: %+v", v)
	}

	// Recovery: the next start succeeds and clears the error.
	l.err = nil
	v, err = s.Start(context.Background())
	if err != nil || v.Mode != ModeReady || v.Error != "" {
		t.Fatalf("expected recovery, got %+v (%v)", v, err)
	}

	// A failure after a board existed keeps the Restart label.
	l.err = &game.InsufficientDataError{Kind: "clues", Have: 2, Need: 5}
	v, _ = s.Start(context.Background())
	if v.Mode != ModeFailed || v.Trigger != LabelRestart {
		t.Fatalf("unexpected view after second failure: %+v", v)
	}
}

func TestWrongShapeFails(t *testing.T) {
	s := New("s1", &stubLoader{}, Shape{Categories: 6, Clues: 5})
	s.loader = loaderFunc(func(ctx context.Context, c, n int) (*game.Board, error) {
		return testBoard(1, 3, 5), nil
	})
	if _, err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for a board of the wrong shape")
	}
	if s.View().Mode != ModeFailed {
		t.Fatal("expected failed mode")
	}
}

type loaderFunc func(ctx context.Context, categories, clues int) (*game.Board, error)

func (f loaderFunc) LoadBoard(ctx context.Context, categories, clues int) (*game.Board, error) {
	return f(ctx, categories, clues)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	g := newGatedLoader()
	s := New("s1", g, shape)

	type startResult struct {
		view View
		err  error
	}
	first := make(chan startResult, 1)
	second := make(chan startResult, 1)

	go func() {
		v, err := s.Start(context.Background())
		first <- startResult{v, err}
	}()
	<-g.started // load 1 in flight

	if v := s.View(); v.Mode != ModeLoading || !v.Busy || v.TriggerEnabled || v.Trigger != LabelLoading {
		t.Fatalf("unexpected loading view: %+v", v)
	}

	go func() {
		v, err := s.Start(context.Background())
		second <- startResult{v, err}
	}()
	<-g.started // load 2 in flight

	// Load 2 finishes first, then the older load 1 completes.
	g.gate(2) <- loadResult{board: testBoard(2, 6, 5)}
	r2 := <-second
	if r2.err != nil || r2.view.Generation != 2 {
		t.Fatalf("second start: %+v (%v)", r2.view, r2.err)
	}

	g.gate(1) <- loadResult{board: testBoard(1, 6, 5)}
	r1 := <-first
	if !errors.Is(r1.err, ErrStaleLoad) {
		t.Fatalf("expected ErrStaleLoad, got %v", r1.err)
	}

	v := s.View()
	if v.Mode != ModeReady || v.Grid.Headers[0] != "load2 cat0" {
		t.Fatalf("stale load replaced the board: %+v", v)
	}
}

func TestStaleFailureDoesNotClobberReadyBoard(t *testing.T) {
	g := newGatedLoader()
	s := New("s1", g, shape)

	first := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background())
		first <- err
	}()
	<-g.started

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()
	<-g.started
	g.gate(2) <- loadResult{board: testBoard(2, 6, 5)}
	<-done

	g.gate(1) <- loadResult{err: errors.New("late failure")}
	if err := <-first; !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("expected ErrStaleLoad, got %v", err)
	}
	if v := s.View(); v.Mode != ModeReady || v.Error != "" {
		t.Fatalf("stale failure leaked into view: %+v", v)
	}
}

func TestDispatchTable(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)
	ctx := context.Background()

	res, err := s.Dispatch(ctx, Event{Kind: EventStart})
	if err != nil || res.View == nil || res.View.Mode != ModeReady {
		t.Fatalf("start event: %+v (%v)", res, err)
	}

	res, err = s.Dispatch(ctx, Event{Kind: EventActivate, At: game.Coord{Category: 1, Clue: 1}})
	if err != nil || res.Cell == nil || res.Cell.ID != "1-1" {
		t.Fatalf("activate event: %+v (%v)", res, err)
	}

	res, err = s.Dispatch(ctx, Event{Kind: EventActivate, At: game.Coord{Category: 40, Clue: 1}})
	if err != nil || res.Cell != nil || res.View != nil {
		t.Fatalf("invalid activation should be swallowed: %+v (%v)", res, err)
	}

	if _, err := s.Dispatch(ctx, Event{Kind: "explode"}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Start(context.Background())
	s.Activate(game.Coord{Category: 2, Clue: 3}, 0)

	// Read only after the load has finished: each update must still carry
	// the view as it was when it was published.
	var got []Update
	for i := 0; i < 3; i++ {
		select {
		case u := <-updates:
			got = append(got, u)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d updates", len(got))
		}
	}
	kinds := make([]UpdateKind, 0, len(got))
	for _, u := range got {
		kinds = append(kinds, u.Kind)
	}
	if diff := cmp.Diff([]UpdateKind{UpdateLoading, UpdateBoard, UpdateCell}, kinds); diff != "" {
		t.Fatalf("update kinds mismatch (-want +got):\n%s", diff)
	}

	loading := got[0].View
	if loading == nil || loading.Mode != ModeLoading || !loading.Busy || loading.TriggerEnabled ||
		loading.Trigger != LabelLoading || loading.Grid != nil {
		t.Fatalf("loading update does not show loading mode: %+v", loading)
	}
	board := got[1].View
	if board == nil || board.Mode != ModeReady || board.Busy || board.Trigger != LabelRestart || board.Grid == nil {
		t.Fatalf("board update does not show the ready board: %+v", board)
	}
	if board.Grid.Rows[3][2].Showing != game.ShowingHidden {
		t.Fatal("board update was modified by a later activation")
	}
	if c := got[2].Cell; c == nil || c.ID != "2-3" || c.Showing != game.ShowingQuestion {
		t.Fatalf("unexpected cell update: %+v", got[2])
	}

	cancel()
	cancel()
	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel after cancel")
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	s := New("s1", &stubLoader{}, Shape{Categories: 6, Clues: 5})
	updates, cancel := s.Subscribe()
	defer cancel()
	s.Start(context.Background())

	// Never read: the buffer fills and the session must not block.
	for c := 0; c < 6; c++ {
		for i := 0; i < 5; i++ {
			s.Activate(game.Coord{Category: c, Clue: i}, 0)
			s.Activate(game.Coord{Category: c, Clue: i}, 0)
		}
	}

	n := 0
	for range updates {
		n++
	}
	if n != subscriberBuffer {
		t.Fatalf("expected %d buffered updates before drop, got %d", subscriberBuffer, n)
	}
}

func TestViewIsACopy(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)
	s.Start(context.Background())

	v := s.View()
	v.Grid.Rows[0][0].Text = "tampered"
	if s.View().Grid.Rows[0][0].Text != render.Placeholder {
		t.Fatal("View should return a copy of the grid")
	}
}

func TestFailedUpdateKeepsLoadingUpdateIntact(t *testing.T) {
	s := New("s1", &stubLoader{err: errors.New("boom")}, shape)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Start(context.Background())

	first, second := <-updates, <-updates
	if first.Kind != UpdateLoading || first.View.Mode != ModeLoading || !first.View.Busy {
		t.Fatalf("unexpected loading update: %+v", first.View)
	}
	if second.Kind != UpdateFailed || second.View.Mode != ModeFailed || second.View.Error == "" {
		t.Fatalf("unexpected failed update: %+v", second.View)
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	s := New("s1", &stubLoader{}, shape)
	s.Close()

	updates, cancel := s.Subscribe()
	defer cancel()
	select {
	case _, ok := <-updates:
		if ok {
			t.Fatal("expected no updates from a closed session")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber to a closed session was not released")
	}

	// Activity after close reaches nobody and does not block.
	s.Start(context.Background())
}
