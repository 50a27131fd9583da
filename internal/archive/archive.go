// internal/archive/archive.go
//
// Local clue archive: a loader.Source backed by SQLite, for running the
// game without the remote API. The schema mirrors the jService payloads
// (categories with their clues). The archive is only ever read by the
// loader; it is filled by ImportJSON from a dump file, never from live
// API responses.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/loader"
)

// Archive reads categories and clues from a SQLite database.
type Archive struct {
	db  *sql.DB
	dsn string
}

// Open opens the database at dsn and applies pending migrations.
func Open(dsn string) (*Archive, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db, dsn: dsn}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error { return a.db.Close() }

// CategoryTotal reports how many categories the archive holds.
func (a *Archive) CategoryTotal(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM categories`).Scan(&n); err != nil {
		return 0, a.fetchErr("count categories", "", err)
	}
	return n, nil
}

// ListCategories returns up to count categories ordered by id, skipping offset.
func (a *Archive) ListCategories(ctx context.Context, count, offset int) ([]loader.CategoryRef, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT c.id, c.title, COUNT(cl.id)
        FROM categories c
        LEFT JOIN clues cl ON cl.category_id = c.id
        GROUP BY c.id, c.title
        ORDER BY c.id
        LIMIT ? OFFSET ?`, count, offset,
	)
	if err != nil {
		return nil, a.fetchErr("list categories", "", err)
	}
	defer rows.Close()

	out := make([]loader.CategoryRef, 0, count)
	for rows.Next() {
		var r loader.CategoryRef
		if err := rows.Scan(&r.ID, &r.Title, &r.CluesCount); err != nil {
			return nil, a.fetchErr("list categories", "", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, a.fetchErr("list categories", "", err)
	}
	return out, nil
}

// Category returns one category with all of its clues ordered by id.
func (a *Archive) Category(ctx context.Context, id int) (*loader.CategoryDetail, error) {
	target := "id " + strconv.Itoa(id)

	d := &loader.CategoryDetail{ID: id}
	err := a.db.QueryRowContext(ctx, `SELECT title FROM categories WHERE id=?`, id).Scan(&d.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, a.fetchErr("get category", target, errors.New("no such category"))
	}
	if err != nil {
		return nil, a.fetchErr("get category", target, err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, question, answer, value FROM clues WHERE category_id=? ORDER BY id`, id)
	if err != nil {
		return nil, a.fetchErr("get category", target, err)
	}
	defer rows.Close()
	for rows.Next() {
		var c loader.RawClue
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.Value); err != nil {
			return nil, a.fetchErr("get category", target, err)
		}
		d.Clues = append(d.Clues, c)
	}
	if err := rows.Err(); err != nil {
		return nil, a.fetchErr("get category", target, err)
	}
	d.CluesCount = len(d.Clues)
	return d, nil
}

// ImportJSON loads a JSON array of category details (the /category payload
// shape) in a single transaction. Existing rows with the same ids are
// replaced. Returns the number of categories imported.
func (a *Archive) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var cats []loader.CategoryDetail
	if err := json.NewDecoder(r).Decode(&cats); err != nil {
		return 0, fmt.Errorf("decode archive dump: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range cats {
		if c.ID <= 0 || strings.TrimSpace(c.Title) == "" {
			return 0, fmt.Errorf("archive dump: category %d has no id or title", c.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO categories (id, title) VALUES (?, ?)`, c.ID, c.Title); err != nil {
			return 0, fmt.Errorf("insert category %d: %w", c.ID, err)
		}
		for _, cl := range c.Clues {
			var clueID any
			if cl.ID > 0 {
				clueID = cl.ID
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO clues (id, category_id, question, answer, value) VALUES (?, ?, ?, ?, ?)`,
				clueID, c.ID, cl.Question, cl.Answer, cl.Value); err != nil {
				return 0, fmt.Errorf("insert clue for category %d: %w", c.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info().Int("categories", len(cats)).Str("dsn", a.dsn).Msg("archive imported")
	return len(cats), nil
}

func (a *Archive) fetchErr(op, target string, err error) error {
	if target == "" {
		target = a.dsn
	}
	return &game.FetchError{Op: op, Target: target, Err: err}
}
