package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MockProvider produces deterministic embeddings and canned answers with no
// network dependency. Identical input text always yields an identical,
// L2-normalized vector.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 384
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	builder := strings.Builder{}
	builder.WriteString("Deterministic answer based on the retrieved passages.")
	for i := range req.Context {
		builder.WriteString(" [S")
		builder.WriteString(strconv.Itoa(i + 1))
		builder.WriteString("]")
	}
	return GenerateResponse{Text: builder.String()}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}

// deterministicVector hashes each token into a signed bucket, so texts that
// share words land near each other under cosine similarity.
func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	tokens := strings.Fields(strings.ToLower(input))
	if len(tokens) == 0 {
		tokens = []string{"empty"}
	}
	for _, tok := range tokens {
		h := sha256.Sum256([]byte(tok))
		bucket := binary.BigEndian.Uint32(h[:4]) % uint32(dim)
		sign := float32(1)
		if h[4]%2 == 1 {
			sign = -1
		}
		vec[bucket] += sign
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
