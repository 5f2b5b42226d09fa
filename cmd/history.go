package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ca-srg/kwsearch/internal/config"
	"github.com/ca-srg/kwsearch/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent search comparisons",
	Long: `
Show the most recent strategy runs recorded by "kwsearch search", newest
first. Runs are stored in KWSEARCH_HISTORY_DB (default ~/.kwsearch/history.db).
`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No search runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUN AT\tSTRATEGY\tWORKERS\tFILES\tKEYWORDS\tSECONDS\tDIRECTORY")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%.4f\t%s\n",
			r.ID,
			r.RunAt.Local().Format("2006-01-02 15:04:05"),
			r.Strategy,
			r.Workers,
			r.Files,
			r.KeywordsHit,
			r.Duration.Seconds(),
			r.Directory,
		)
	}
	return w.Flush()
}
