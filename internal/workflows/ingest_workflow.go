// Package workflows orchestrates project ingestion on Temporal. One
// workflow run per project at a time: the API starts it with a
// project-scoped workflow ID, so concurrent ingest requests for the same
// project collapse into a single run.
package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"docqa/internal/activities"
	"docqa/internal/models"
)

const QueryGetIngestProgress = "GetIngestProgress"

func IngestProjectWorkflow(ctx workflow.Context, input IngestProjectInput) (models.IngestResult, error) {
	runID := input.RunID
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.RunID
	}
	progress := IngestProgress{ProjectID: input.ProjectID, PerDocument: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestProgress, func() (IngestProgress, error) {
		return progress, nil
	}); err != nil {
		return models.IngestResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	result := models.IngestResult{Status: models.StatusOK, ProjectID: input.ProjectID, RunID: runID}

	var listOut activities.ListNewDocumentsOutput
	if err := workflow.ExecuteActivity(ctx, "ListNewDocumentsActivity", activities.ListNewDocumentsInput{
		ProjectID: input.ProjectID,
	}).Get(ctx, &listOut); err != nil {
		return models.IngestResult{}, err
	}
	if listOut.TotalListed == 0 {
		result.Message = "No documents to ingest"
		return result, nil
	}
	if len(listOut.Documents) == 0 {
		result.Message = "No new documents to ingest"
		return result, nil
	}
	progress.Total = len(listOut.Documents)

	var entries []activities.ChunkEntry
	var embedModel string
	for _, doc := range listOut.Documents {
		progress.PerDocument[doc.ID] = "processing"
		var out activities.ProcessDocumentOutput
		err := workflow.ExecuteActivity(ctx, "ProcessDocumentActivity", activities.ProcessDocumentInput{
			Document: doc,
		}).Get(ctx, &out)
		if err != nil {
			progress.Failed++
			progress.PerDocument[doc.ID] = "failed"
			result.FailedDocuments = append(result.FailedDocuments, models.DocumentFailure{
				DocumentID: doc.ID,
				Title:      doc.Title,
				Reason:     err.Error(),
			})
			continue
		}
		progress.Done++
		progress.PerDocument[doc.ID] = "done"
		entries = append(entries, out.Entries...)
		embedModel = out.EmbedModel
		result.ChunksIngested += len(out.Entries)
	}

	if len(entries) > 0 {
		var mergeOut activities.MergeEntriesOutput
		if err := workflow.ExecuteActivity(ctx, "MergeEntriesActivity", activities.MergeEntriesInput{
			ProjectID:  input.ProjectID,
			Entries:    entries,
			EmbedModel: embedModel,
		}).Get(ctx, &mergeOut); err != nil {
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
