package providers

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedDeterministic(t *testing.T) {
	p := NewMockProvider(64)
	a, _, err := p.Embed(context.Background(), EmbedRequest{Operation: "test", Inputs: []string{"retrieval augmented generation"}})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _, err := p.Embed(context.Background(), EmbedRequest{Operation: "test", Inputs: []string{"retrieval augmented generation"}})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

func TestMockEmbedUnitNorm(t *testing.T) {
	p := NewMockProvider(64)
	vecs, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"some words to hash"}})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("expected unit norm, got squared norm %f", sum)
	}
}

func TestMockEmbedSharedWordsScoreHigher(t *testing.T) {
	p := NewMockProvider(256)
	vecs, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{
		"how are vectors stored on disk",
		"vectors are stored on disk in a flat file",
		"sourdough bread needs a long cold proof",
	}})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	near := dot(vecs[0], vecs[1])
	far := dot(vecs[0], vecs[2])
	if near <= far {
		t.Fatalf("expected overlapping text to score higher: near=%f far=%f", near, far)
	}
}

func TestMockEmbedEmptyInput(t *testing.T) {
	p := NewMockProvider(32)
	vecs, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{""}})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 32 {
		t.Fatalf("unexpected shape: %d vectors", len(vecs))
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
