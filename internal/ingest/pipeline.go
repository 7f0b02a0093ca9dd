// Package ingest builds per-project vector indexes from the document
// catalog. The pipeline is decomposed into steps (list, process, merge) that
// the workflow runs as activities; Run stitches them together for the CLI
// and tests.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/docsource"
	"docqa/internal/extract"
	"docqa/internal/index"
	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/splitter"
)

// Catalog lists the documents registered for a project.
type Catalog interface {
	ListDocuments(ctx context.Context, projectID string) ([]models.Document, error)
}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	EmbedDim     int
}

type Pipeline struct {
	catalog  Catalog
	source   docsource.Source
	embedder providers.EmbeddingProvider
	store    *index.Store
	split    *splitter.Splitter
	cfg      Config
}

func NewPipeline(catalog Catalog, source docsource.Source, embedder providers.EmbeddingProvider, store *index.Store, cfg Config) *Pipeline {
	return &Pipeline{
		catalog:  catalog,
		source:   source,
		embedder: embedder,
		store:    store,
		split:    splitter.New(cfg.ChunkSize, cfg.ChunkOverlap),
		cfg:      cfg,
	}
}

// SeenDocumentIDs returns the document IDs already present in the project's
// index. A missing index means nothing is seen yet; a corrupt index is an
// error, because treating it as empty would re-ingest everything on top of
// whatever is still on disk.
func (p *Pipeline) SeenDocumentIDs(projectID string) (map[string]struct{}, error) {
	m, err := p.store.LoadManifest(projectID)
	if err != nil {
		if index.IsNotFound(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("load existing index: %w", err)
	}
	seen := make(map[string]struct{}, len(m.DocumentIDs))
	for _, id := range m.DocumentIDs {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// NewDocuments lists the catalog and filters it down to documents that still
// need ingesting. Rows without an ID or storage path are skipped. Returns
// the new documents and the total number of catalog rows.
func (p *Pipeline) NewDocuments(ctx context.Context, projectID string) ([]models.Document, int, error) {
	docs, err := p.catalog.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	seen, err := p.SeenDocumentIDs(projectID)
	if err != nil {
		return nil, 0, err
	}
	fresh := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.StoragePath) == "" {
			log.Printf("ingest: skipping malformed catalog row in project %s (id=%q path=%q)", projectID, d.ID, d.StoragePath)
			continue
		}
		if _, ok := seen[d.ID]; ok {
			continue
		}
		if strings.TrimSpace(d.Title) == "" {
			d.Title = "Untitled document"
		}
		fresh = append(fresh, d)
	}
	return fresh, len(docs), nil
}

// ProcessDocument fetches, extracts, chunks and embeds one document. All
// chunks of the document are embedded in one batch. The second return value
// is the embedding model that produced the vectors.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc models.Document) ([]index.Entry, string, error) {
	data, err := p.source.Fetch(ctx, doc.StoragePath)
	if err != nil {
		return nil, "", fmt.Errorf("fetch document: %w", err)
	}
	pages, err := extract.Pages(data)
	if err != nil {
		return nil, "", fmt.Errorf("extract text: %w", err)
	}

	var texts []string
	var metas []models.ChunkMetadata
	for _, page := range pages {
		meta := models.ChunkMetadata{
			ProjectID:   doc.ProjectID,
			DocumentID:  doc.ID,
			Title:       doc.Title,
			StoragePath: doc.StoragePath,
		}
		if page.Number > 0 {
			n := page.Number
			meta.Page = &n
		}
		for _, chunk := range p.split.Split(page.Text) {
			texts = append(texts, chunk)
			metas = append(metas, meta)
		}
	}
	if len(texts) == 0 {
		return nil, "", extract.ErrNoText
	}

	vectors, info, err := p.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "ingest_chunks",
		Inputs:    texts,
		Dimension: p.cfg.EmbedDim,
	})
	if err != nil {
		return nil, "", fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	entries := make([]index.Entry, 0, len(texts))
	for i := range texts {
		entries = append(entries, index.Entry{Vector: vectors[i], Text: texts[i], Metadata: metas[i]})
	}
	return entries, info.Model, nil
}

// Merge folds new entries into the project's index under the project lock
// and publishes the result. embedModel is recorded in the manifest so
// queries can detect a model mismatch; an empty value keeps the existing
// manifest's model. Returns the total entry count after the merge.
func (p *Pipeline) Merge(projectID string, entries []index.Entry, embedModel string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	unlock := p.store.Lock(projectID)
	defer unlock()

	idx, m, err := p.store.Load(projectID)
	switch {
	case err == nil:
		entries = dropIndexedDocuments(projectID, entries, idx.DocumentIDs())
		if len(entries) == 0 {
			return idx.Len(), nil
		}
		if err := idx.Add(entries); err != nil {
			return 0, fmt.Errorf("merge entries: %w", err)
		}
		if embedModel == "" {
			embedModel = m.EmbedModel
		} else if m.EmbedModel != "" && m.EmbedModel != embedModel {
			return 0, fmt.Errorf("embedding model changed from %s to %s, refusing to mix vectors", m.EmbedModel, embedModel)
		}
	case index.IsNotFound(err):
		idx, err = index.New(entries)
		if err != nil {
			return 0, fmt.Errorf("build index: %w", err)
		}
	default:
		return 0, fmt.Errorf("load index for merge: %w", err)
	}

	if err := p.store.Save(projectID, idx, embedModel); err != nil {
		return 0, fmt.Errorf("save index: %w", err)
	}
	return idx.Len(), nil
}

// dropIndexedDocuments removes entries whose document is already indexed.
// The listing step filters against the manifest too, but it runs before the
// project lock is taken, so the merge re-checks against the index it just
// loaded.
func dropIndexedDocuments(projectID string, entries []index.Entry, indexed []string) []index.Entry {
	seen := make(map[string]struct{}, len(indexed))
	for _, id := range indexed {
		seen[id] = struct{}{}
	}
	kept := make([]index.Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Metadata.DocumentID]; ok {
			continue
		}
		kept = append(kept, e)
	}
	if dropped := len(entries) - len(kept); dropped > 0 {
		log.Printf("ingest: dropping %d chunks for already indexed documents in project %s", dropped, projectID)
	}
	return kept
}

// Run ingests every new document for a project. Individual document failures
// are recorded and do not abort the run; catalog or index-store failures do.
func (p *Pipeline) Run(ctx context.Context, projectID string) (models.IngestResult, error) {
	runID := uuid.NewString()
	result := models.IngestResult{Status: models.StatusOK, ProjectID: projectID, RunID: runID}

	fresh, total, err := p.NewDocuments(ctx, projectID)
	if err != nil {
		return models.IngestResult{}, err
	}
	if total == 0 {
		result.Message = "No documents to ingest"
		return result, nil
	}
	if len(fresh) == 0 {
		result.Message = "No new documents to ingest"
		return result, nil
	}

	var entries []index.Entry
	var embedModel string
	for _, doc := range fresh {
		docEntries, model, err := p.ProcessDocument(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return models.IngestResult{}, ctx.Err()
			}
			log.Printf("ingest: document %s (%s) failed: %v", doc.ID, doc.Title, err)
			result.FailedDocuments = append(result.FailedDocuments, models.DocumentFailure{
				DocumentID: doc.ID,
				Title:      doc.Title,
				Reason:     err.Error(),
			})
			continue
		}
		entries = append(entries, docEntries...)
		embedModel = model
		result.ChunksIngested += len(docEntries)
	}

	if len(entries) > 0 {
		if _, err := p.Merge(projectID, entries, embedModel); err != nil {
			return models.IngestResult{}, err
		}
	}

	switch {
	case result.ChunksIngested == 0 && len(result.FailedDocuments) > 0:
		result.Status = models.StatusError
		result.Message = "All documents failed to ingest"
	case len(result.FailedDocuments) > 0:
		result.Message = fmt.Sprintf("Ingested %d chunks, %d documents failed", result.ChunksIngested, len(result.FailedDocuments))
	default:
		result.Message = fmt.Sprintf("Ingested %d chunks", result.ChunksIngested)
	}
	return result, nil
}
