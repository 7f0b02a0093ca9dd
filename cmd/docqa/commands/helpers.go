package commands

import (
	"context"
	"fmt"
	"time"

	"docqa/internal/config"
	"docqa/internal/docsource"
	"docqa/internal/index"
	"docqa/internal/ingest"
	"docqa/internal/providers"
	"docqa/internal/query"
	"docqa/internal/storage"
)

func openDB(ctx context.Context, cfg config.Config) (*storage.DB, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(dialCtx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to catalog: %w", err)
	}
	return db, nil
}

func buildPipeline(cfg config.Config, db *storage.DB) (*ingest.Pipeline, error) {
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
	return ingest.NewPipeline(
		storage.NewDocumentRepo(db),
		source,
		pm.EmbedProvider(),
		index.NewStore(cfg.IndexRoot),
		ingest.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap, EmbedDim: cfg.EmbedDim},
	), nil
}

func buildQueryService(cfg config.Config) (*query.Service, error) {
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	return query.NewService(
		index.NewStore(cfg.IndexRoot),
		pm.EmbedProvider(),
		pm.LLMProvider(),
		query.Config{EmbedDim: cfg.EmbedDim, DefaultK: cfg.DefaultTopK},
	), nil
}
