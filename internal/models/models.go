package models

import (
	"fmt"
	"strings"
	"time"
)

type Project struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is a catalog entry. Ingestion only reads documents; they are
// immutable once created.
type Document struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkMetadata travels with every indexed chunk so retrieval can trace a
// match back to its source document. Page is nil when the source format has
// no page structure.
type ChunkMetadata struct {
	ProjectID   string `json:"project_id"`
	DocumentID  string `json:"document_id"`
	Title       string `json:"title"`
	StoragePath string `json:"storage_path"`
	Page        *int   `json:"page,omitempty"`
}

func (m ChunkMetadata) Validate() error {
	if strings.TrimSpace(m.ProjectID) == "" {
		return fmt.Errorf("chunk metadata: project_id is required")
	}
	if strings.TrimSpace(m.DocumentID) == "" {
		return fmt.Errorf("chunk metadata: document_id is required")
	}
	if strings.TrimSpace(m.StoragePath) == "" {
		return fmt.Errorf("chunk metadata: storage_path is required")
	}
	return nil
}

// Match is one retrieved chunk, ranked by descending similarity.
type Match struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}

type IngestResult struct {
	Status          string            `json:"status"`
	Message         string            `json:"message"`
	ProjectID       string            `json:"project_id"`
	ChunksIngested  int               `json:"chunks_ingested"`
	FailedDocuments []DocumentFailure `json:"failed_documents,omitempty"`
	RunID           string            `json:"run_id,omitempty"`
}

type QueryResult struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	ProjectID string  `json:"project_id"`
	Question  string  `json:"question"`
	Matches   []Match `json:"matches"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)
