package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/models"
)

// NewIngestCmd constructs `docqa ingest`, which runs the ingestion pipeline
// in-process for one project: list the catalog, skip already-indexed
// documents, chunk, embed and publish the updated index.
func NewIngestCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "ingest --project <id>",
		Short: "Ingest a project's new documents into its vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			pipeline, err := buildPipeline(cfg, db)
			if err != nil {
				return err
			}
			res, err := pipeline.Run(ctx, project)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", res.Status, res.Message)
			for _, f := range res.FailedDocuments {
				fmt.Fprintf(out, "  failed %s (%s): %s\n", f.DocumentID, f.Title, f.Reason)
			}
			if res.Status == models.StatusError {
				return fmt.Errorf("ingest finished with errors")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project to ingest")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
