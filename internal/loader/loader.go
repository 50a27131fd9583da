// internal/loader/loader.go
//
// Board loader: turns a category Source into a fresh game.Board.
//
// Algorithm (one call to LoadBoard):
//  1. Pick a random page offset so repeated games do not favor the
//     low-numbered categories; bounded by Sizer when the source knows its size.
//  2. List one batch of candidate categories, drop duplicate ids and sample
//     the requested number of distinct ids without replacement.
//  3. Fetch each sampled category in turn, drop unusable clues, and sample
//     the requested number of distinct clues, each starting hidden.
//
// Any failure fails the whole load. Nothing is cached between calls.

package loader

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/game"
)

const (
	defaultBatchSize   = 100
	defaultOffsetPages = 200
)

// Options tune the candidate batch the loader samples from.
type Options struct {
	BatchSize   int        // categories requested per listing (default 100)
	OffsetPages int        // number of BatchSize pages the offset is drawn from (default 200)
	Rand        *rand.Rand // nil seeds from the clock
}

// Loader builds boards from a Source. Safe for concurrent use.
type Loader struct {
	src         Source
	batchSize   int
	offsetPages int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New constructs a Loader over src.
func New(src Source, opts Options) *Loader {
	l := &Loader{
		src:         src,
		batchSize:   opts.BatchSize,
		offsetPages: opts.OffsetPages,
		rng:         opts.Rand,
	}
	if l.batchSize <= 0 {
		l.batchSize = defaultBatchSize
	}
	if l.offsetPages <= 0 {
		l.offsetPages = defaultOffsetPages
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return l
}

// LoadBoard assembles a board of categoryCount categories with
// cluesPerCategory clues each, all hidden.
//
// Errors:
//   - *game.FetchError when the source fails or returns malformed data.
//   - *game.InsufficientDataError when the batch has too few distinct
//     categories or a category has too few usable clues.
//   - ctx.Err() when the context ends between fetches.
func (l *Loader) LoadBoard(ctx context.Context, categoryCount, cluesPerCategory int) (*game.Board, error) {
	if categoryCount <= 0 || cluesPerCategory <= 0 {
		return nil, errors.New("loader: category and clue counts must be positive")
	}
	start := time.Now()

	offset, err := l.offset(ctx, categoryCount)
	if err != nil {
		return nil, err
	}

	refs, err := l.src.ListCategories(ctx, l.batchSize, offset)
	if err != nil {
		return nil, asFetchError(err, "list categories", "offset "+strconv.Itoa(offset))
	}
	ids := distinctIDs(refs)
	if len(ids) < categoryCount {
		return nil, &game.InsufficientDataError{Kind: "categories", Have: len(ids), Need: categoryCount}
	}
	l.mu.Lock()
	picked := sampleSize(l.rng, ids, categoryCount)
	l.mu.Unlock()

	board := &game.Board{
		Categories:       make([]game.Category, 0, categoryCount),
		CluesPerCategory: cluesPerCategory,
	}
	for _, id := range picked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cat, err := l.category(ctx, id, cluesPerCategory)
		if err != nil {
			return nil, err
		}
		board.Categories = append(board.Categories, cat)
	}

	log.Debug().
		Int("offset", offset).
		Ints("categoryIds", picked).
		Dur("took", time.Since(start)).
		Msg("board loaded")
	return board, nil
}

// category fetches one category and normalizes it into display shape.
func (l *Loader) category(ctx context.Context, id, cluesPerCategory int) (game.Category, error) {
	target := "id " + strconv.Itoa(id)
	detail, err := l.src.Category(ctx, id)
	if err != nil {
		return game.Category{}, asFetchError(err, "get category", target)
	}
	if detail == nil || strings.TrimSpace(detail.Title) == "" {
		return game.Category{}, &game.FetchError{Op: "get category", Target: target, Err: errors.New("malformed category")}
	}

	usable := usableClues(detail.Clues)
	if len(usable) < cluesPerCategory {
		return game.Category{}, &game.InsufficientDataError{
			Kind:   "clues",
			Source: strconv.Quote(detail.Title),
			Have:   len(usable),
			Need:   cluesPerCategory,
		}
	}
	l.mu.Lock()
	chosen := sampleSize(l.rng, usable, cluesPerCategory)
	l.mu.Unlock()

	cat := game.Category{Title: detail.Title, Clues: make([]game.Clue, 0, len(chosen))}
	for _, c := range chosen {
		cat.Clues = append(cat.Clues, game.NewClue(c.Question, c.Answer))
	}
	return cat, nil
}

// offset draws a random listing offset, a multiple of the batch size.
func (l *Loader) offset(ctx context.Context, need int) (int, error) {
	pages := l.offsetPages
	if sz, ok := l.src.(Sizer); ok {
		total, err := sz.CategoryTotal(ctx)
		if err != nil {
			return 0, asFetchError(err, "count categories", "")
		}
		// Only pages that still hold at least need categories are eligible.
		fit := 1
		if total > need {
			fit = (total-need)/l.batchSize + 1
		}
		if fit < pages {
			pages = fit
		}
	}
	l.mu.Lock()
	n := l.rng.Intn(pages)
	l.mu.Unlock()
	return n * l.batchSize, nil
}

// asFetchError leaves typed errors and context errors alone and wraps
// anything else in a *game.FetchError.
func asFetchError(err error, op, target string) error {
	var fe *game.FetchError
	var ie *game.InsufficientDataError
	switch {
	case errors.As(err, &fe), errors.As(err, &ie):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &game.FetchError{Op: op, Target: target, Err: err}
}
