package providers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Providers that hit quota or rate limits are benched for this long before
// the failover chain tries them again.
const providerCooldown = 15 * time.Minute

type cooldownTracker struct {
	mu            sync.Mutex
	disabledUntil map[int]time.Time
	now           func() time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{
		disabledUntil: make(map[int]time.Time),
		now:           time.Now,
	}
}

func (c *cooldownTracker) available(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.disabledUntil[i]
	if !ok {
		return true
	}
	if c.now().After(until) {
		delete(c.disabledUntil, i)
		return true
	}
	return false
}

func (c *cooldownTracker) bench(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabledUntil[i] = c.now().Add(providerCooldown)
}

// failoverEmbedder walks the configured embedding providers in order.
// Quota and rate-limit failures bench the provider and move on, transient
// failures move on without benching, anything else fails the request.
type failoverEmbedder struct {
	list     []NamedEmbedProvider
	cooldown *cooldownTracker
}

func newFailoverEmbedder(list []NamedEmbedProvider) *failoverEmbedder {
	return &failoverEmbedder{list: list, cooldown: newCooldownTracker()}
}

func (f *failoverEmbedder) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	var lastErr error
	var lastInfo ProviderInfo
	for i, p := range f.list {
		if !f.cooldown.available(i) {
			continue
		}
		vecs, info, err := p.Provider.Embed(ctx, req)
		if err == nil {
			return vecs, info, nil
		}
		lastErr, lastInfo = err, info
		kind := ClassifyError(err)
		switch kind {
		case ErrorQuota, ErrorRate:
			log.Printf("embedding provider %s benched after %s error: %v", p.Ref.Raw, kind, err)
			f.cooldown.bench(i)
		case ErrorTransient:
			log.Printf("embedding provider %s failed, trying next: %v", p.Ref.Raw, err)
		default:
			return nil, info, err
		}
	}
	if lastErr == nil {
		return nil, ProviderInfo{}, fmt.Errorf("all embedding providers are cooling down")
	}
	return nil, lastInfo, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

// failoverLLM is the generation-side counterpart of failoverEmbedder.
type failoverLLM struct {
	list     []NamedLLMProvider
	cooldown *cooldownTracker
}

func newFailoverLLM(list []NamedLLMProvider) *failoverLLM {
	return &failoverLLM{list: list, cooldown: newCooldownTracker()}
}

func (f *failoverLLM) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var lastErr error
	var lastInfo ProviderInfo
	for i, p := range f.list {
		if !f.cooldown.available(i) {
			continue
		}
		resp, info, err := p.Provider.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		lastErr, lastInfo = err, info
		kind := ClassifyError(err)
		switch kind {
		case ErrorQuota, ErrorRate:
			log.Printf("llm provider %s benched after %s error: %v", p.Ref.Raw, kind, err)
			f.cooldown.bench(i)
		case ErrorTransient:
			log.Printf("llm provider %s failed, trying next: %v", p.Ref.Raw, err)
		default:
			return GenerateResponse{}, info, err
		}
	}
	if lastErr == nil {
		return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("all llm providers are cooling down")
	}
	return GenerateResponse{}, lastInfo, fmt.Errorf("all llm providers failed: %w", lastErr)
}
