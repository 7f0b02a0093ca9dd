package workflows

type IngestProjectInput struct {
	ProjectID string `json:"project_id"`
	RunID     string `json:"run_id,omitempty"`
}

type IngestProgress struct {
	ProjectID   string            `json:"project_id"`
	Total       int               `json:"total"`
	Done        int               `json:"done"`
	Failed      int               `json:"failed"`
	PerDocument map[string]string `json:"per_document"`
}
