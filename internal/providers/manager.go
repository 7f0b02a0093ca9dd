package providers

import (
	"fmt"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager builds and holds the configured embedding and generation providers.
// Both lists fall back to the deterministic mock provider when empty so the
// service is runnable with zero external configuration.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider

	embed EmbeddingProvider
	llm   LLMProvider
}

func NewManager(llmSpec, embedSpec string, embedDim int) (*Manager, error) {
	llmRefs := ParseProviderList(llmSpec)
	embedRefs := ParseProviderList(embedSpec)

	m := &Manager{}
	for _, ref := range llmRefs {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support generation", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range embedRefs {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(embedDim)}}
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(embedDim)}}
	}
	if len(m.embedProviders) == 1 {
		m.embed = m.embedProviders[0].Provider
	} else {
		m.embed = newFailoverEmbedder(m.embedProviders)
	}
	if len(m.llmProviders) == 1 {
		m.llm = m.llmProviders[0].Provider
	} else {
		m.llm = newFailoverLLM(m.llmProviders)
	}
	return m, nil
}

// EmbedProvider is the embedding provider services should use. A single
// configured entry is used directly, longer lists go through failover.
func (m *Manager) EmbedProvider() EmbeddingProvider {
	return m.embed
}

// LLMProvider is the generation provider services should use.
func (m *Manager) LLMProvider() LLMProvider {
	return m.llm
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch ref.Name {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
