package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/models"
)

// NewAskCmd constructs `docqa ask`, which retrieves context for a question
// and generates an answer grounded in it.
func NewAskCmd() *cobra.Command {
	var project string
	var k int
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask --project <id> <question>",
		Short: "Answer a question from the project's documents",
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
			res, answer, err := svc.Ask(cmd.Context(), project, strings.Join(args, " "), kArg)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			out := cmd.OutOrStdout()
			if res.Status != models.StatusOK {
				fmt.Fprintf(out, "%s: %s\n", res.Status, res.Message)
				return nil
			}
			fmt.Fprintln(out, answer)
			if showSources {
				fmt.Fprintln(out)
				printMatches(cmd, res)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project to ask")
	cmd.Flags().IntVar(&k, "k", 0, "Number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the retrieved chunks after the answer")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
