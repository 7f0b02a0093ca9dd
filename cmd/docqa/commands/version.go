package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Injected at build time via -ldflags; "dev" for local builds.
var (
	version = "dev"
	commit  = "unknown"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the docqa version and git commit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docqa %s (commit: %s)\n", version, commit)
		},
	}
}
