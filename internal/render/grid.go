// Package render turns a game.Board into the display structure the browser
// client paints: a header row of category titles and one body row per clue
// index, each cell addressed by its (category, clue) coordinate.
package render

import (
	"github.com/robalobadob/jeopardy/internal/game"
)

// Placeholder is shown in every cell whose clue is still hidden.
const Placeholder = "?"

// Marker is a visual state flag the client maps onto CSS classes.
type Marker string

const (
	MarkerHover   Marker = "hover"   // cell still reacts to clicks
	MarkerInitial Marker = "initial" // not yet revealed
	MarkerClue    Marker = "clue"    // question revealed
	MarkerAnswer  Marker = "answer"  // answer revealed
)

// Cell is one rendered board cell.
type Cell struct {
	ID      string       `json:"id"`
	At      game.Coord   `json:"at"`
	Text    string       `json:"text"`
	Markers []Marker     `json:"markers"`
	Showing game.Showing `json:"showing"`
}

// DisplayGrid is the rendered board.
type DisplayGrid struct {
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
}

// Render materializes b into a DisplayGrid. Rows are clue indexes and
// columns follow board order. A nil board renders as an empty grid.
func Render(b *game.Board) DisplayGrid {
	cats, clues := b.Size()
	g := DisplayGrid{
		Headers: make([]string, 0, cats),
		Rows:    make([][]Cell, clues),
	}
	if b == nil {
		return g
	}
	for _, c := range b.Categories {
		g.Headers = append(g.Headers, c.Title)
	}
	for i := 0; i < clues; i++ {
		row := make([]Cell, 0, cats)
		for c := 0; c < cats; c++ {
			at := game.Coord{Category: c, Clue: i}
			cl, err := b.Clue(at)
			if err != nil {
				continue
			}
			row = append(row, cellFor(at, cl.Showing, cl))
		}
		g.Rows[i] = row
	}
	return g
}

// Update returns the cell a reveal turns into. It is the per-cell update
// command sent to display surfaces after an activation.
func Update(r game.Reveal) Cell {
	cell := cellFor(r.At, r.Showing, game.Clue{})
	cell.Text = r.Text
	return cell
}

// cellFor renders one clue in the given state.
func cellFor(at game.Coord, s game.Showing, cl game.Clue) Cell {
	cell := Cell{ID: at.String(), At: at, Showing: s}
	switch s {
	case game.ShowingQuestion:
		cell.Text = cl.Question
		cell.Markers = []Marker{MarkerHover, MarkerClue}
	case game.ShowingAnswer:
		cell.Text = cl.Answer
		cell.Markers = []Marker{MarkerAnswer}
	default:
		cell.Text = Placeholder
		cell.Showing = game.ShowingHidden
		cell.Markers = []Marker{MarkerHover, MarkerInitial}
	}
	return cell
}

// Cell returns the rendered cell at the given coordinate.
func (g DisplayGrid) Cell(at game.Coord) (Cell, bool) {
	if at.Clue < 0 || at.Clue >= len(g.Rows) {
		return Cell{}, false
	}
	row := g.Rows[at.Clue]
	if at.Category < 0 || at.Category >= len(row) {
		return Cell{}, false
	}
	return row[at.Category], true
}

// Clone returns a deep copy of g.
func (g DisplayGrid) Clone() DisplayGrid {
	out := DisplayGrid{
		Headers: append([]string(nil), g.Headers...),
		Rows:    make([][]Cell, len(g.Rows)),
	}
	for i, row := range g.Rows {
		cp := make([]Cell, len(row))
		for j, c := range row {
			c.Markers = append([]Marker(nil), c.Markers...)
			cp[j] = c
		}
		out.Rows[i] = cp
	}
	return out
}

// Apply replaces the cell addressed by c.At with c. Out-of-range cells are
// ignored.
func (g DisplayGrid) Apply(c Cell) {
	if _, ok := g.Cell(c.At); !ok {
		return
	}
	g.Rows[c.At.Clue][c.At.Category] = c
}
