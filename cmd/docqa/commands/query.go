package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/models"
)

// NewQueryCmd constructs `docqa query`, which prints the top-k matching
// chunks for a question without calling the generation model.
func NewQueryCmd() *cobra.Command {
	var project string
	var k int

	cmd := &cobra.Command{
		Use:   "query --project <id> <question>",
		Short: "Retrieve the most relevant chunks for a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			svc, err := buildQueryService(cfg)
			if err != nil {
				return err
			}
			var kArg *int
			if cmd.Flags().Changed("k") {
				kArg = &k
			}
			res, err := svc.Query(cmd.Context(), project, strings.Join(args, " "), kArg)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			printMatches(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project to query")
	cmd.Flags().IntVar(&k, "k", 0, "Number of chunks to retrieve (default from config)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func printMatches(cmd *cobra.Command, res models.QueryResult) {
	out := cmd.OutOrStdout()
	if res.Status != models.StatusOK {
		fmt.Fprintf(out, "%s: %s\n", res.Status, res.Message)
		return
	}
	for i, m := range res.Matches {
		label := m.Metadata.Title
		if m.Metadata.Page != nil {
			label = fmt.Sprintf("%s, page %d", label, *m.Metadata.Page)
		}
		fmt.Fprintf(out, "[%d] %.3f %s\n%s\n\n", i+1, m.Score, label, m.Content)
	}
}
