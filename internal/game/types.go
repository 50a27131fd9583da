// internal/game/types.go
//
// Core type definitions for the Jeopardy board.
// Defines:
//   - Showing: reveal state of a single clue (hidden/question/answer).
//   - Clue, Category, Board: the in-memory board for one game session.
//   - Coord: stable (category, clue) address of a board cell.

package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Showing is the reveal state of a clue.
// Possible values, in the only order they can be reached:
//   - "hidden":   nothing shown yet (initial).
//   - "question": the question text is visible.
//   - "answer":   the answer text is visible (terminal).
type Showing string

const (
	ShowingHidden   Showing = "hidden"
	ShowingQuestion Showing = "question"
	ShowingAnswer   Showing = "answer"
)

// Valid reports whether s is one of the three known states.
func (s Showing) Valid() bool {
	switch s {
	case ShowingHidden, ShowingQuestion, ShowingAnswer:
		return true
	}
	return false
}

// Clue is one question/answer pair on the board.
type Clue struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Showing  Showing `json:"showing"`
}

// NewClue returns a clue in the hidden state.
func NewClue(question, answer string) Clue {
	return Clue{Question: question, Answer: answer, Showing: ShowingHidden}
}

// Category is one board column: a title and its clues in display order.
type Category struct {
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

// Board holds every category of one game. It is built wholesale by the
// loader and replaced, never merged, on restart.
type Board struct {
	Categories       []Category `json:"categories"`
	CluesPerCategory int        `json:"cluesPerCategory"`
}

// Size reports the number of categories and clues per category.
func (b *Board) Size() (categories, clues int) {
	if b == nil {
		return 0, 0
	}
	return len(b.Categories), b.CluesPerCategory
}

// Validate checks that every category carries exactly CluesPerCategory clues
// and that every clue is in a known state.
func (b *Board) Validate() error {
	if b == nil || len(b.Categories) == 0 {
		return fmt.Errorf("board: no categories")
	}
	if b.CluesPerCategory <= 0 {
		return fmt.Errorf("board: clues per category must be positive, got %d", b.CluesPerCategory)
	}
	for i, c := range b.Categories {
		if len(c.Clues) != b.CluesPerCategory {
			return fmt.Errorf("board: category %d (%q) has %d clues, want %d", i, c.Title, len(c.Clues), b.CluesPerCategory)
		}
		for j, cl := range c.Clues {
			if !cl.Showing.Valid() {
				return fmt.Errorf("board: clue %d-%d has unknown state %q", i, j, cl.Showing)
			}
		}
	}
	return nil
}

// Contains reports whether at addresses a cell of this board.
func (b *Board) Contains(at Coord) bool {
	if b == nil {
		return false
	}
	if at.Category < 0 || at.Category >= len(b.Categories) {
		return false
	}
	return at.Clue >= 0 && at.Clue < len(b.Categories[at.Category].Clues)
}

// Clue returns a copy of the clue at the given coordinate.
func (b *Board) Clue(at Coord) (Clue, error) {
	if !b.Contains(at) {
		return Clue{}, b.invalid(at)
	}
	return b.Categories[at.Category].Clues[at.Clue], nil
}

func (b *Board) invalid(at Coord) *InvalidCoordinateError {
	cats, clues := b.Size()
	return &InvalidCoordinateError{At: at, Categories: cats, Clues: clues}
}

// Coord addresses one cell: the category column and the clue row.
type Coord struct {
	Category int `json:"category"`
	Clue     int `json:"clue"`
}

// String returns the stable cell id "<category>-<clue>".
func (c Coord) String() string {
	return strconv.Itoa(c.Category) + "-" + strconv.Itoa(c.Clue)
}

// ParseCoord parses a cell id produced by Coord.String.
func ParseCoord(id string) (Coord, error) {
	cat, clue, ok := strings.Cut(id, "-")
	if !ok {
		return Coord{}, fmt.Errorf("cell id %q: missing separator", id)
	}
	c, err := strconv.Atoi(cat)
	if err != nil {
		return Coord{}, fmt.Errorf("cell id %q: category: %w", id, err)
	}
	i, err := strconv.Atoi(clue)
	if err != nil {
		return Coord{}, fmt.Errorf("cell id %q: clue: %w", id, err)
	}
	return Coord{Category: c, Clue: i}, nil
}
