// internal/game/errors.go
//
// Error taxonomy shared by the loader, the data sources and the session:
//   - FetchError:             remote source unreachable or returned bad data.
//   - InsufficientDataError:  not enough categories or clues to fill a board.
//   - InvalidCoordinateError: activation addressed a cell outside the board.
//
// Callers match these with errors.As.

package game

import "fmt"

// FetchError reports a failed read from a category source.
type FetchError struct {
	Op     string // "list categories" | "get category"
	Target string // URL, DSN or category id the operation addressed
	Status int    // HTTP status when the remote answered, 0 otherwise
	Err    error
}

func (e *FetchError) Error() string {
	msg := "fetch: " + e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// InsufficientDataError reports that a source returned fewer usable items
// than the board needs.
type InsufficientDataError struct {
	Kind   string // "categories" | "clues"
	Source string // category title or id when Kind is "clues"
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("insufficient %s in %s: have %d, need %d", e.Kind, e.Source, e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient %s: have %d, need %d", e.Kind, e.Have, e.Need)
}

// InvalidCoordinateError reports an activation outside the current board.
type InvalidCoordinateError struct {
	At         Coord
	Categories int
	Clues      int
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %s on %dx%d board", e.At, e.Categories, e.Clues)
}
