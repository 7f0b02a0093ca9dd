package index

import (
	"errors"
	"testing"

	"docqa/internal/models"
)

func entry(id string, text string, vec ...float32) Entry {
	return Entry{
		Vector:   vec,
		Text:     text,
		Metadata: models.ChunkMetadata{ProjectID: "p1", DocumentID: id, Title: "doc " + id},
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNewRejectsMixedDimensions(t *testing.T) {
	_, err := New([]Entry{
		entry("d1", "a", 1, 0),
		entry("d2", "b", 1, 0, 0),
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchOrdersByCosine(t *testing.T) {
	idx, err := New([]Entry{
		entry("d1", "orthogonal", 0, 1),
		entry("d2", "aligned", 1, 0),
		entry("d3", "diagonal", 1, 1),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	results, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].Entry.Text != "aligned" || results[1].Entry.Text != "diagonal" || results[2].Entry.Text != "orthogonal" {
		t.Fatalf("unexpected order: %q %q %q", results[0].Entry.Text, results[1].Entry.Text, results[2].Entry.Text)
	}
	if results[0].Score <= results[1].Score || results[1].Score <= results[2].Score {
		t.Fatalf("scores not descending: %v %v %v", results[0].Score, results[1].Score, results[2].Score)
	}
}

func TestSearchCapsK(t *testing.T) {
	idx, err := New([]Entry{entry("d1", "only", 1, 0)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	results, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearchInvalidK(t *testing.T) {
	idx, _ := New([]Entry{entry("d1", "only", 1, 0)})
	if _, err := idx.Search([]float32{1, 0}, 0); !errors.Is(err, ErrInvalidK) {
		t.Fatalf("expected ErrInvalidK, got %v", err)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	idx, _ := New([]Entry{entry("d1", "only", 1, 0)})
	if _, err := idx.Search([]float32{1, 0, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	idx, err := New([]Entry{
		entry("d1", "first", 1, 1),
		entry("d2", "second", 2, 2),
		entry("d3", "third", 3, 3),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	results, err := idx.Search([]float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for n, want := range []string{"first", "second", "third"} {
		if results[n].Entry.Text != want {
			t.Fatalf("position %d: got %q want %q", n, results[n].Entry.Text, want)
		}
	}
}

func TestSearchZeroNormVectorScoresZero(t *testing.T) {
	idx, err := New([]Entry{
		entry("d1", "zero", 0, 0),
		entry("d2", "real", 1, 0),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	results, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].Entry.Text != "real" {
		t.Fatalf("expected real vector first, got %q", results[0].Entry.Text)
	}
	if results[1].Score != 0 {
		t.Fatalf("expected zero score for zero-norm vector, got %v", results[1].Score)
	}
}

func TestDocumentIDsSortedAndDistinct(t *testing.T) {
	idx, err := New([]Entry{
		entry("d2", "a", 1, 0),
		entry("d1", "b", 0, 1),
		entry("d2", "c", 1, 1),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ids := idx.DocumentIDs()
	if len(ids) != 2 || ids[0] != "d1" || ids[1] != "d2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestAddRejectsWrongDimension(t *testing.T) {
	idx, _ := New([]Entry{entry("d1", "a", 1, 0)})
	if err := idx.Add([]Entry{entry("d2", "b", 1, 0, 0)}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("failed add must not mutate index, len=%d", idx.Len())
	}
}
