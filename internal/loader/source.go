// internal/loader/source.go
//
// Source is the read-only view of a category/clue provider the loader
// builds boards from. Two implementations ship with the server:
//   - jservice.Client: the remote jService JSON API.
//   - archive.Archive: a local SQLite database with the same shape.

package loader

import "context"

// CategoryRef is one entry of a category listing.
type CategoryRef struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	CluesCount int    `json:"clues_count"`
}

// RawClue is a clue as the source returns it, before normalization.
type RawClue struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Value    int    `json:"value"`
}

// CategoryDetail is a category with its full clue set.
type CategoryDetail struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	CluesCount int       `json:"clues_count"`
	Clues      []RawClue `json:"clues"`
}

// Source lists categories and fetches category details.
// Both calls may block on I/O and may fail.
type Source interface {
	// ListCategories returns up to count categories starting at offset.
	ListCategories(ctx context.Context, count, offset int) ([]CategoryRef, error)

	// Category returns the category with the given id and all its clues.
	Category(ctx context.Context, id int) (*CategoryDetail, error)
}

// Sizer is implemented by sources that know how many categories they hold.
// The loader uses it to keep random offsets inside the data.
type Sizer interface {
	CategoryTotal(ctx context.Context) (int, error)
}
