// Package index implements the per-project in-memory vector index and its
// on-disk store. Search is exact brute-force cosine similarity over a flat
// slice of entries, which is fast enough for per-project document sets.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"docqa/internal/models"
)

var (
	ErrEmptyInput        = errors.New("index: no entries")
	ErrEmptyIndex        = errors.New("index: empty index")
	ErrInvalidK          = errors.New("index: k must be positive")
	ErrDimensionMismatch = errors.New("index: vector dimension mismatch")
	ErrNotFound          = errors.New("index: not found")
	ErrCorrupt           = errors.New("index: corrupt index data")
)

// Entry is a single indexed chunk: its embedding, the chunk text, and the
// metadata needed to attribute a match back to a source document.
type Entry struct {
	Vector   []float32
	Text     string
	Metadata models.ChunkMetadata
}

type Result struct {
	Entry Entry
	Score float64
}

// Index holds the entries for one project. All vectors share one dimension,
// fixed by the first entry. Index is not safe for concurrent mutation; the
// store serializes writers per project.
type Index struct {
	dim     int
	entries []Entry
}

func New(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyInput
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector", ErrDimensionMismatch)
	}
	idx := &Index{dim: dim, entries: make([]Entry, 0, len(entries))}
	if err := idx.Add(entries); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Index) Add(entries []Entry) error {
	for n, e := range entries {
		if len(e.Vector) != i.dim {
			return fmt.Errorf("%w: entry %d has dimension %d, index has %d", ErrDimensionMismatch, n, len(e.Vector), i.dim)
		}
	}
	i.entries = append(i.entries, entries...)
	return nil
}

// Search returns the k entries most similar to the query vector, scored by
// cosine similarity and ordered by descending score. Ties keep insertion
// order. k larger than the index is capped, never an error.
func (i *Index) Search(query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(i.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(query), i.dim)
	}
	results := make([]Result, 0, len(i.entries))
	for _, e := range i.entries {
		results = append(results, Result{Entry: e, Score: cosine(query, e.Vector)})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (i *Index) Len() int {
	return len(i.entries)
}

func (i *Index) Dimension() int {
	return i.dim
}

// DocumentIDs returns the distinct source document IDs present in the index,
// sorted. This is the deduplication set consulted before re-ingesting.
func (i *Index) DocumentIDs() []string {
	seen := make(map[string]struct{})
	for _, e := range i.entries {
		if e.Metadata.DocumentID != "" {
			seen[e.Metadata.DocumentID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (i *Index) Entries() []Entry {
	return i.entries
}

// cosine returns dot(a,b)/(|a||b|). A zero-norm operand scores 0 so that
// degenerate vectors sink to the bottom instead of poisoning the ranking.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
		na += float64(a[n]) * float64(a[n])
		nb += float64(b[n]) * float64(b[n])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
