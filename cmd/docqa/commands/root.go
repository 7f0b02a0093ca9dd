// Package commands defines the Cobra commands for the docqa binary. The CLI
// runs the ingestion pipeline and queries directly, without the Temporal
// worker, which makes it useful for local corpora and debugging.
package commands

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docqa",
		Short: "Question answering over per-project document collections",
		Long: `docqa ingests project documents into a local vector index and answers
questions against it.

Configuration comes from DOCQA_* environment variables (optionally via a
.env file). The CLI talks to the document catalog and index store directly;
the long-running API service orchestrates the same pipeline through a
Temporal worker instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewAddCmd(),
		NewIngestCmd(),
		NewQueryCmd(),
		NewAskCmd(),
		NewVersionCmd(),
	)
	return root
}
