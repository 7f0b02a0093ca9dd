package storage

import (
	"context"
	"fmt"

	"docqa/internal/models"
)

// DocumentRepo reads the document catalog. Ingestion only consumes the
// catalog; rows are written by the upload service that owns the table.
type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// ListDocuments returns all catalog rows for a project, newest first. Rows
// with a NULL title or storage_path come back as empty strings and are
// filtered by the ingestion pipeline.
func (r *DocumentRepo) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, project_id::text, COALESCE(title,''), COALESCE(storage_path,''), created_at
FROM documents
WHERE project_id=$1
ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Title, &d.StoragePath, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// InsertDocument registers a document in the catalog. Used by the CLI when
// ingesting local files that have no upload service in front of them.
func (r *DocumentRepo) InsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (id, project_id, title, storage_path)
VALUES ($1, $2, NULLIF($3,''), $4)
ON CONFLICT (id) DO NOTHING`, d.ID, d.ProjectID, d.Title, d.StoragePath)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}
