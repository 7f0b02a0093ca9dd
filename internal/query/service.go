// Package query answers questions against a project's vector index.
package query

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/index"
	"docqa/internal/models"
	"docqa/internal/providers"
)

type Config struct {
	EmbedDim int
	DefaultK int
}

type Service struct {
	store     *index.Store
	embedder  providers.EmbeddingProvider
	generator providers.LLMProvider
	cfg       Config
}

func NewService(store *index.Store, embedder providers.EmbeddingProvider, generator providers.LLMProvider, cfg Config) *Service {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 4
	}
	return &Service{store: store, embedder: embedder, generator: generator, cfg: cfg}
}

// InvalidArgumentError marks caller mistakes so the API layer can map them
// to a 400 instead of a 500.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// Query retrieves the top-k chunks for a question. A project without an
// index is not an error: it yields a structured result with an error status
// and empty matches. k nil means the configured default; an explicit
// non-positive k is an invalid argument.
func (s *Service) Query(ctx context.Context, projectID, question string, k *int) (models.QueryResult, error) {
	if strings.TrimSpace(projectID) == "" {
		return models.QueryResult{}, &InvalidArgumentError{Reason: "project_id is required"}
	}
	if strings.TrimSpace(question) == "" {
		return models.QueryResult{}, &InvalidArgumentError{Reason: "question is required"}
	}
	topK := s.cfg.DefaultK
	if k != nil {
		if *k <= 0 {
			return models.QueryResult{}, &InvalidArgumentError{Reason: "k must be positive"}
		}
		topK = *k
	}

	idx, manifest, err := s.store.Load(projectID)
	if err != nil {
		if index.IsNotFound(err) {
			return models.QueryResult{
				Status:    models.StatusError,
				Message:   "No index found for project",
				ProjectID: projectID,
				Question:  question,
				Matches:   []models.Match{},
			}, nil
		}
		return models.QueryResult{}, fmt.Errorf("load index: %w", err)
	}

	vectors, info, err := s.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "query",
		Inputs:    []string{question},
		Dimension: s.cfg.EmbedDim,
	})
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return models.QueryResult{}, fmt.Errorf("embedder returned %d vectors for one question", len(vectors))
	}
	if manifest.EmbedModel != "" && info.Model != manifest.EmbedModel {
		return models.QueryResult{}, fmt.Errorf("index was built with embedding model %s but query uses %s", manifest.EmbedModel, info.Model)
	}

	results, err := idx.Search(vectors[0], topK)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("search index: %w", err)
	}

	matches := make([]models.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, models.Match{Content: r.Entry.Text, Metadata: r.Entry.Metadata, Score: r.Score})
	}
	return models.QueryResult{
		Status:    models.StatusOK,
		ProjectID: projectID,
		Question:  question,
		Matches:   matches,
	}, nil
}

// Ask retrieves context for the question and asks the generator to answer
// from it. Retrieval-level error results (no index) pass through unchanged.
func (s *Service) Ask(ctx context.Context, projectID, question string, k *int) (models.QueryResult, string, error) {
	res, err := s.Query(ctx, projectID, question, k)
	if err != nil || res.Status != models.StatusOK {
		return res, "", err
	}
	resp, _, err := s.generator.Generate(ctx, providers.GenerateRequest{
		Operation: "rag_answer",
		Prompt:    question,
		Context:   contextItems(res.Matches),
	})
	if err != nil {
		return res, "", fmt.Errorf("generate answer: %w", err)
	}
	return res, resp.Text, nil
}

// ContextBlock renders matches as a source-attributed context block for
// prompting or display.
func ContextBlock(matches []models.Match) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[S%d] %s", i+1, sourceLabel(m.Metadata))
		b.WriteString("\n")
		b.WriteString(m.Content)
	}
	return b.String()
}

func sourceLabel(m models.ChunkMetadata) string {
	label := m.Title
	if label == "" {
		label = m.StoragePath
	}
	if m.Page != nil {
		return fmt.Sprintf("%s (page %d)", label, *m.Page)
	}
	return label
}

func contextItems(matches []models.Match) []string {
	items := make([]string, 0, len(matches))
	for i, m := range matches {
		items = append(items, fmt.Sprintf("[S%d] %s\n%s", i+1, sourceLabel(m.Metadata), m.Content))
	}
	return items
}
