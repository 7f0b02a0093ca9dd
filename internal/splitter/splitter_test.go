package splitter

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := New(100, 20)
	chunks := s.Split("just a short paragraph")
	if len(chunks) != 1 || chunks[0] != "just a short paragraph" {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := New(100, 20)
	if got := s.Split("   \n\t "); got != nil {
		t.Fatalf("expected no chunks, got %#v", got)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := New(10, 2)
	text := strings.Repeat("abcdefghij", 5)
	chunks := s.Split(text)
	if len(chunks) < 5 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Fatalf("chunk %d exceeds size: %q", i, c)
		}
	}
}

func TestSplitOverlapSharedBetweenChunks(t *testing.T) {
	s := New(10, 2)
	text := strings.Repeat("abcdefghij", 4)
	chunks := s.Split(text)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		next := []rune(chunks[i])
		if string(prev[len(prev)-2:]) != string(next[:2]) {
			t.Fatalf("chunks %d/%d do not share overlap: %q %q", i-1, i, chunks[i-1], chunks[i])
		}
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	s := New(20, 0)
	chunks := s.Split("first para\n\nsecond paragraph")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %#v", chunks)
	}
	if chunks[0] != "first para" || chunks[1] != "second paragraph" {
		t.Fatalf("not split at paragraph boundary: %#v", chunks)
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	s := New(30, 0)
	chunks := s.Split("One short sentence here. Another short sentence here. A third one.")
	for i, c := range chunks {
		if strings.HasPrefix(c, " ") {
			t.Fatalf("chunk %d has ragged start: %q", i, c)
		}
		if len([]rune(c)) > 30 {
			t.Fatalf("chunk %d exceeds size: %q", i, c)
		}
	}
	if chunks[0] != "One short sentence here." {
		t.Fatalf("expected first sentence intact, got %q", chunks[0])
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	a := s.Split(text)
	b := s.Split(text)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
