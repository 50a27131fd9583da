package loader

import (
	"math/rand"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// sampleSize returns n elements drawn uniformly without replacement.
// items is not modified. If n >= len(items) every element is returned in
// random order.
func sampleSize[T any](rng *rand.Rand, items []T, n int) []T {
	pool := make([]T, len(items))
	copy(pool, items)
	if n > len(pool) {
		n = len(pool)
	}
	// Partial Fisher-Yates: the first n slots end up as the sample.
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// distinctIDs collapses repeated category ids, keeping first-seen order.
func distinctIDs(refs []CategoryRef) []int {
	seen := mapset.New[int]()
	out := make([]int, 0, len(refs))
	for _, r := range refs {
		if r.ID <= 0 || seen.Has(r.ID) {
			continue
		}
		seen.Put(r.ID)
		out = append(out, r.ID)
	}
	return out
}

// usableClues drops clues without question or answer text and repeated
// clue ids.
func usableClues(clues []RawClue) []RawClue {
	seen := mapset.New[int]()
	out := make([]RawClue, 0, len(clues))
	for _, c := range clues {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			continue
		}
		if c.ID != 0 {
			if seen.Has(c.ID) {
				continue
			}
			seen.Put(c.ID)
		}
		out = append(out, c)
	}
	return out
}
