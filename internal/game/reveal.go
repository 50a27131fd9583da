// internal/game/reveal.go
//
// Reveal state machine for a single clue.
// Responsibilities:
//   - Advance a clue hidden → question → answer on activation.
//   - Swallow activations of clues already showing their answer.
//   - Reject coordinates outside the board without touching any clue.
//
// Board.Activate is the only code path that mutates Clue.Showing.
package game

// Reveal describes what an activation changed: the cell, the text now
// displayed there and the clue's new state.
type Reveal struct {
	At      Coord   `json:"at"`
	Text    string  `json:"text"`
	Showing Showing `json:"showing"`
}

// next returns the state that follows s and whether a transition exists.
func (s Showing) next() (Showing, bool) {
	switch s {
	case ShowingHidden, "":
		return ShowingQuestion, true
	case ShowingQuestion:
		return ShowingAnswer, true
	}
	return s, false
}

// Activate advances the clue at the given coordinate by one step.
// Returns the reveal and true when the clue changed state, a zero Reveal and
// false when the clue already shows its answer, or an *InvalidCoordinateError
// if at is outside the board.
func (b *Board) Activate(at Coord) (Reveal, bool, error) {
	if !b.Contains(at) {
		return Reveal{}, false, b.invalid(at)
	}
	clue := &b.Categories[at.Category].Clues[at.Clue]

	next, ok := clue.Showing.next()
	if !ok {
		return Reveal{}, false, nil
	}
	clue.Showing = next

	r := Reveal{At: at, Showing: next}
	if next == ShowingQuestion {
		r.Text = clue.Question
	} else {
		r.Text = clue.Answer
	}
	return r, true, nil
}
