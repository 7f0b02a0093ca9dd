package activities

import "docqa/internal/models"

type ListNewDocumentsInput struct {
	ProjectID string `json:"project_id"`
}

type ListNewDocumentsOutput struct {
	Documents   []models.Document `json:"documents"`
	TotalListed int               `json:"total_listed"`
}

type ProcessDocumentInput struct {
	Document models.Document `json:"document"`
}

// ChunkEntry is the wire form of an indexed chunk, passed between the
// process and merge activities through workflow history.
type ChunkEntry struct {
	Vector   []float32            `json:"vector"`
	Text     string               `json:"text"`
	Metadata models.ChunkMetadata `json:"metadata"`
}

type ProcessDocumentOutput struct {
	Entries    []ChunkEntry `json:"entries"`
	EmbedModel string       `json:"embed_model"`
}

type MergeEntriesInput struct {
	ProjectID  string       `json:"project_id"`
	Entries    []ChunkEntry `json:"entries"`
	EmbedModel string       `json:"embed_model"`
}

type MergeEntriesOutput struct {
	TotalEntries int `json:"total_entries"`
}
