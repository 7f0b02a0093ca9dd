package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type scriptedEmbedder struct {
	name  string
	err   error
	calls int
}

func (s *scriptedEmbedder) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, ProviderInfo{Name: s.name}, s.err
	}
	out := make([][]float32, len(req.Inputs))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, ProviderInfo{Name: s.name, Model: s.name + "-model"}, nil
}

type scriptedLLM struct {
	name  string
	err   error
	calls int
}

func (s *scriptedLLM) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	s.calls++
	if s.err != nil {
		return GenerateResponse{}, ProviderInfo{Name: s.name}, s.err
	}
	return GenerateResponse{Text: "answer from " + s.name}, ProviderInfo{Name: s.name}, nil
}

func embedChain(stubs ...*scriptedEmbedder) *failoverEmbedder {
	list := make([]NamedEmbedProvider, 0, len(stubs))
	for _, s := range stubs {
		list = append(list, NamedEmbedProvider{Ref: ProviderRef{Raw: s.name, Name: s.name}, Provider: s})
	}
	return newFailoverEmbedder(list)
}

func TestFailoverEmbedBenchesRateLimitedProvider(t *testing.T) {
	primary := &scriptedEmbedder{name: "primary", err: errors.New("429 rate limit exceeded")}
	backup := &scriptedEmbedder{name: "backup"}
	chain := embedChain(primary, backup)

	req := EmbedRequest{Inputs: []string{"hello"}, Dimension: 1}
	_, info, err := chain.Embed(context.Background(), req)
	if err != nil {
		t.Fatalf("expected rotation to backup, got: %v", err)
	}
	if info.Name != "backup" {
		t.Fatalf("expected backup to serve the request, got %q", info.Name)
	}

	// Benched providers are skipped until the cooldown expires.
	if _, _, err := chain.Embed(context.Background(), req); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("benched provider called %d times, want 1", primary.calls)
	}
	if backup.calls != 2 {
		t.Fatalf("backup called %d times, want 2", backup.calls)
	}
}

func TestFailoverEmbedTransientDoesNotBench(t *testing.T) {
	primary := &scriptedEmbedder{name: "primary", err: errors.New("connection timeout")}
	backup := &scriptedEmbedder{name: "backup"}
	chain := embedChain(primary, backup)

	req := EmbedRequest{Inputs: []string{"hello"}, Dimension: 1}
	for i := 0; i < 2; i++ {
		if _, _, err := chain.Embed(context.Background(), req); err != nil {
			t.Fatalf("call %d failed: %v", i+1, err)
		}
	}
	if primary.calls != 2 {
		t.Fatalf("transient failures should not bench, primary called %d times, want 2", primary.calls)
	}
}

func TestFailoverEmbedPermanentErrorStopsChain(t *testing.T) {
	primary := &scriptedEmbedder{name: "primary", err: errors.New("model not found")}
	backup := &scriptedEmbedder{name: "backup"}
	chain := embedChain(primary, backup)

	_, _, err := chain.Embed(context.Background(), EmbedRequest{Inputs: []string{"hello"}})
	if err == nil {
		t.Fatal("expected permanent error to surface")
	}
	if backup.calls != 0 {
		t.Fatalf("permanent error should not rotate, backup called %d times", backup.calls)
	}
}

func TestFailoverEmbedAllProvidersExhausted(t *testing.T) {
	a := &scriptedEmbedder{name: "a", err: errors.New("insufficient_quota")}
	b := &scriptedEmbedder{name: "b", err: errors.New("429 rate limit")}
	chain := embedChain(a, b)

	_, _, err := chain.Embed(context.Background(), EmbedRequest{Inputs: []string{"hello"}})
	if err == nil || !strings.Contains(err.Error(), "all embedding providers failed") {
		t.Fatalf("expected chain exhaustion error, got: %v", err)
	}

	_, _, err = chain.Embed(context.Background(), EmbedRequest{Inputs: []string{"hello"}})
	if err == nil || !strings.Contains(err.Error(), "cooling down") {
		t.Fatalf("expected cooldown error while all benched, got: %v", err)
	}
}

func TestFailoverLLMRotatesOnQuota(t *testing.T) {
	primary := &scriptedLLM{name: "primary", err: errors.New("insufficient_quota")}
	backup := &scriptedLLM{name: "backup"}
	chain := newFailoverLLM([]NamedLLMProvider{
		{Ref: ProviderRef{Raw: "primary", Name: "primary"}, Provider: primary},
		{Ref: ProviderRef{Raw: "backup", Name: "backup"}, Provider: backup},
	})

	resp, info, err := chain.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("expected rotation to backup, got: %v", err)
	}
	if info.Name != "backup" || resp.Text != "answer from backup" {
		t.Fatalf("unexpected response: %+v from %q", resp, info.Name)
	}
}

func TestCooldownTrackerExpires(t *testing.T) {
	now := time.Now()
	c := newCooldownTracker()
	c.now = func() time.Time { return now }

	c.bench(0)
	if c.available(0) {
		t.Fatal("benched provider should be unavailable")
	}
	now = now.Add(providerCooldown + time.Second)
	if !c.available(0) {
		t.Fatal("provider should recover after cooldown")
	}
}

func TestManagerUsesFailoverForMultipleProviders(t *testing.T) {
	m, err := NewManager("mock|mock", "mock|mock", 8)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, ok := m.EmbedProvider().(*failoverEmbedder); !ok {
		t.Fatalf("expected failover embedder, got %T", m.EmbedProvider())
	}
	if _, ok := m.LLMProvider().(*failoverLLM); !ok {
		t.Fatalf("expected failover llm, got %T", m.LLMProvider())
	}

	single, err := NewManager("mock", "mock", 8)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, ok := single.EmbedProvider().(*MockProvider); !ok {
		t.Fatalf("single entry should be used directly, got %T", single.EmbedProvider())
	}
}
