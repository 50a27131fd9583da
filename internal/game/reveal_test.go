package game

import (
	"errors"
	"fmt"
	"testing"
)

func newTestBoard(categories, clues int) *Board {
	b := &Board{CluesPerCategory: clues}
	for c := 0; c < categories; c++ {
		cat := Category{Title: fmt.Sprintf("Category %d", c)}
		for i := 0; i < clues; i++ {
			cat.Clues = append(cat.Clues, NewClue(fmt.Sprintf("Q%d-%d", c, i), fmt.Sprintf("A%d-%d", c, i)))
		}
		b.Categories = append(b.Categories, cat)
	}
	return b
}

func TestActivateSequence(t *testing.T) {
	b := newTestBoard(6, 5)
	at := Coord{Category: 2, Clue: 3}

	r, changed, err := b.Activate(at)
	if err != nil || !changed {
		t.Fatalf("first activation: changed=%v err=%v", changed, err)
	}
	if r.Text != "Q2-3" || r.Showing != ShowingQuestion {
		t.Fatalf("first activation: got %+v", r)
	}

	r, changed, err = b.Activate(at)
	if err != nil || !changed {
		t.Fatalf("second activation: changed=%v err=%v", changed, err)
	}
	if r.Text != "A2-3" || r.Showing != ShowingAnswer {
		t.Fatalf("second activation: got %+v", r)
	}

	r, changed, err = b.Activate(at)
	if err != nil {
		t.Fatalf("third activation: unexpected error %v", err)
	}
	if changed {
		t.Fatalf("third activation should be a no-op, got %+v", r)
	}
	if got, _ := b.Clue(at); got.Showing != ShowingAnswer {
		t.Fatalf("expected state to remain answer, got %q", got.Showing)
	}
}

func TestActivateTouchesOnlyTarget(t *testing.T) {
	b := newTestBoard(6, 5)
	target := Coord{Category: 2, Clue: 3}

	if _, _, err := b.Activate(target); err != nil {
		t.Fatalf("activate: %v", err)
	}

	for c, cat := range b.Categories {
		for i, cl := range cat.Clues {
			at := Coord{Category: c, Clue: i}
			want := ShowingHidden
			if at == target {
				want = ShowingQuestion
			}
			if cl.Showing != want {
				t.Fatalf("clue %s: expected %q, got %q", at, want, cl.Showing)
			}
		}
	}
}

func TestActivateInvalidCoordinate(t *testing.T) {
	b := newTestBoard(2, 2)

	for _, at := range []Coord{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {9, 9}} {
		_, changed, err := b.Activate(at)
		if changed {
			t.Fatalf("%s: expected no change", at)
		}
		var ice *InvalidCoordinateError
		if !errors.As(err, &ice) {
			t.Fatalf("%s: expected InvalidCoordinateError, got %v", at, err)
		}
		if ice.Categories != 2 || ice.Clues != 2 {
			t.Fatalf("%s: unexpected board size in error: %+v", at, ice)
		}
	}

	var nilBoard *Board
	if _, _, err := nilBoard.Activate(Coord{}); err == nil {
		t.Fatal("expected error on nil board")
	}
}

func TestShowingNeverRegresses(t *testing.T) {
	b := newTestBoard(3, 3)
	prev := make(map[Coord]int)

	// Hammer the board in a fixed but interleaved order.
	for step := 0; step < 50; step++ {
		at := Coord{Category: step % 3, Clue: (step / 3) % 3}
		if _, _, err := b.Activate(at); err != nil {
			t.Fatalf("activate %s: %v", at, err)
		}
		for c, cat := range b.Categories {
			for i, cl := range cat.Clues {
				k := Coord{Category: c, Clue: i}
				if !cl.Showing.Valid() {
					t.Fatalf("clue %s in unknown state %q", k, cl.Showing)
				}
				if rank(cl.Showing) < prev[k] {
					t.Fatalf("clue %s regressed to %q", k, cl.Showing)
				}
				prev[k] = rank(cl.Showing)
			}
		}
	}
}

func TestCoordRoundTrip(t *testing.T) {
	at := Coord{Category: 5, Clue: 4}
	if at.String() != "5-4" {
		t.Fatalf("expected 5-4, got %s", at.String())
	}
	got, err := ParseCoord("5-4")
	if err != nil || got != at {
		t.Fatalf("ParseCoord: got %+v, %v", got, err)
	}
	for _, bad := range []string{"", "5", "x-1", "1-y"} {
		if _, err := ParseCoord(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestBoardValidate(t *testing.T) {
	if err := newTestBoard(6, 5).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ragged := newTestBoard(2, 3)
	ragged.Categories[1].Clues = ragged.Categories[1].Clues[:2]
	if err := ragged.Validate(); err == nil {
		t.Fatal("expected error for ragged board")
	}

	if err := (&Board{}).Validate(); err == nil {
		t.Fatal("expected error for empty board")
	}
}

// rank orders the states; a clue's rank never decreases.
func rank(s Showing) int {
	switch s {
	case ShowingQuestion:
		return 1
	case ShowingAnswer:
		return 2
	}
	return 0
}
