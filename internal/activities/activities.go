package activities

import (
	"context"

	"docqa/internal/config"
	"docqa/internal/docsource"
	"docqa/internal/index"
	"docqa/internal/ingest"
	"docqa/internal/providers"
	"docqa/internal/storage"
)

type Activities struct {
	pipeline *ingest.Pipeline
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	var source docsource.Source
	if cfg.DocumentSourceIsHTTP() {
		source = docsource.NewHTTPSource(cfg.StorageBaseURL, cfg.StorageBucket, cfg.StorageToken)
	} else {
		source = docsource.NewFSSource(cfg.StorageRoot)
	}
	pipeline := ingest.NewPipeline(
		storage.NewDocumentRepo(db),
		source,
		pm.EmbedProvider(),
		index.NewStore(cfg.IndexRoot),
		ingest.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap, EmbedDim: cfg.EmbedDim},
	)
	return &Activities{pipeline: pipeline}, nil
}

// NewWithPipeline wires activities over a prebuilt pipeline. Used by tests.
func NewWithPipeline(p *ingest.Pipeline) *Activities {
	return &Activities{pipeline: p}
}

func (a *Activities) ListNewDocumentsActivity(ctx context.Context, in ListNewDocumentsInput) (ListNewDocumentsOutput, error) {
	docs, total, err := a.pipeline.NewDocuments(ctx, in.ProjectID)
	if err != nil {
		return ListNewDocumentsOutput{}, err
	}
	return ListNewDocumentsOutput{Documents: docs, TotalListed: total}, nil
}

func (a *Activities) ProcessDocumentActivity(ctx context.Context, in ProcessDocumentInput) (ProcessDocumentOutput, error) {
	entries, model, err := a.pipeline.ProcessDocument(ctx, in.Document)
	if err != nil {
		return ProcessDocumentOutput{}, err
	}
	return ProcessDocumentOutput{Entries: toChunkEntries(entries), EmbedModel: model}, nil
}

func (a *Activities) MergeEntriesActivity(ctx context.Context, in MergeEntriesInput) (MergeEntriesOutput, error) {
	_ = ctx
	total, err := a.pipeline.Merge(in.ProjectID, toIndexEntries(in.Entries), in.EmbedModel)
	if err != nil {
		return MergeEntriesOutput{}, err
	}
	return MergeEntriesOutput{TotalEntries: total}, nil
}

func toChunkEntries(entries []index.Entry) []ChunkEntry {
	out := make([]ChunkEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ChunkEntry{Vector: e.Vector, Text: e.Text, Metadata: e.Metadata})
	}
	return out
}

func toIndexEntries(entries []ChunkEntry) []index.Entry {
	out := make([]index.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, index.Entry{Vector: e.Vector, Text: e.Text, Metadata: e.Metadata})
	}
	return out
}
