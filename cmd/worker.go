package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ca-srg/kwsearch/internal/search"
)

var workerCmd = &cobra.Command{
	Use:    search.WorkerCommand,
	Short:  "Run one process-strategy worker (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return search.RunWorker(cmd.Context(), os.Stdin)
	},
}
