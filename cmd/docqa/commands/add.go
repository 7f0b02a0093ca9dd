package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/internal/storage"
	"docqa/internal/util"
)

// NewAddCmd constructs `docqa add`, which copies local files into document
// storage and registers them in the catalog. Follow with `docqa ingest` to
// index them.
func NewAddCmd() *cobra.Command {
	var project string
	var title string

	cmd := &cobra.Command{
		Use:   "add --project <id> <file>...",
		Short: "Register local files as project documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			if cfg.DocumentSourceIsHTTP() {
				return fmt.Errorf("add: documents are served from %s, upload them there instead", cfg.StorageBaseURL)
			}
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := storage.NewDocumentRepo(db)

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("add: %w", err)
				}
				name := filepath.Base(path)
				storagePath := project + "/" + name
				if err := util.WriteFileAtomic(util.SafeJoin(cfg.StorageRoot, storagePath), data); err != nil {
					return fmt.Errorf("add: store %s: %w", name, err)
				}
				docTitle := title
				if docTitle == "" {
					docTitle = strings.TrimSuffix(name, filepath.Ext(name))
				}
				doc := models.Document{
					ID:          uuid.NewString(),
					ProjectID:   project,
					Title:       docTitle,
					StoragePath: storagePath,
				}
				if err := repo.InsertDocument(ctx, doc); err != nil {
					return fmt.Errorf("add: register %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s as %s\n", name, doc.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project the documents belong to")
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the file name)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
