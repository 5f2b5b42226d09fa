package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ca-srg/kwsearch/internal/config"
	"github.com/ca-srg/kwsearch/internal/history"
	"github.com/ca-srg/kwsearch/internal/observability"
	"github.com/ca-srg/kwsearch/internal/report"
	"github.com/ca-srg/kwsearch/internal/scanner"
	"github.com/ca-srg/kwsearch/internal/search"
	"github.com/ca-srg/kwsearch/internal/types"
)

var errInterrupted = errors.New("search interrupted by user")

var (
	searchDirectory   string
	searchKeywords    []string
	searchWorkers     int
	searchExtensions  []string
	searchEncoding    string
	searchStrategy    string
	searchGitHubRepo  string
	searchReportDir   string
	searchFormat      string
	searchSort        bool
	searchInteractive bool
	searchNoHistory   bool
)

// launcher starts process-strategy workers; tests replace it
var launcher = search.SelfLauncher()

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search files for keywords and compare thread and process strategies",
	Long: `
Search every supported file under a directory for the given keywords. The
same search is run once per strategy (goroutine workers, then worker
processes), each strategy's results and elapsed time are printed, and a
report is written to search_results_YYYYMMDD_HHMMSS.<ext>.

Matching is case-insensitive substring matching. Parameters default to the
KWSEARCH_* environment variables and can be entered interactively.
`,
	Example: `  kwsearch search --interactive
  kwsearch search -d ./logs -k error,timeout -w 8
  kwsearch search --github golang/example -k gopher --strategy thread
  kwsearch search -d ./docs -k TODO --format json --sort`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchDirectory, "dir", "d", "", "Directory to search (default from KWSEARCH_DIRECTORY)")
	searchCmd.Flags().StringSliceVarP(&searchKeywords, "keywords", "k", nil, "Comma-separated keywords (default from KWSEARCH_KEYWORDS)")
	searchCmd.Flags().IntVarP(&searchWorkers, "workers", "w", 0, "Number of workers per strategy (default from KWSEARCH_WORKERS)")
	searchCmd.Flags().StringSliceVar(&searchExtensions, "extensions", nil, "Accepted file extensions (default from KWSEARCH_EXTENSIONS)")
	searchCmd.Flags().StringVar(&searchEncoding, "encoding", "", "Text encoding of the files (default from KWSEARCH_ENCODING)")
	searchCmd.Flags().StringVar(&searchStrategy, "strategy", "all", "Strategy to run: thread, process or all")
	searchCmd.Flags().StringVar(&searchGitHubRepo, "github", "", "Search a shallow clone of owner/repo instead of a local directory")
	searchCmd.Flags().StringVar(&searchReportDir, "report-dir", "", "Directory for the report file (default from KWSEARCH_REPORT_DIR)")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "", "Report format: text, json or yaml (default from KWSEARCH_REPORT_FORMAT)")
	searchCmd.Flags().BoolVar(&searchSort, "sort", false, "Sort each keyword's file list in output and report")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "Prompt for directory, keywords and worker count")
	searchCmd.Flags().BoolVar(&searchNoHistory, "no-history", false, "Do not record this run in the history database")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := applySearchFlags(cmd, cfg); err != nil {
		return err
	}

	if searchInteractive {
		promptParameters(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
	}

	strategies, err := parseStrategies(searchStrategy)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return err
	}

	// Opened before telemetry so the runs gauge can still read it while the
	// providers flush on shutdown.
	var store *history.Store
	if cfg.HistoryEnabled && !searchNoHistory {
		store, err = history.NewStore(cfg.HistoryDB)
		if err != nil {
			log.Printf("Warning: search history disabled: %v", err)
			store = nil
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	shutdown, err := observability.Init(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown OpenTelemetry: %v", err)
		}
	}()

	if store != nil {
		if _, err := store.ObserveRuns(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = executeSearch(ctx, cmd.OutOrStdout(), cfg, store, strategies, format)
	if errors.Is(err, errInterrupted) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%v\n", err)
		return nil
	}
	return err
}

func executeSearch(ctx context.Context, out io.Writer, cfg *config.Config, store *history.Store, strategies []types.Strategy, format report.Format) error {
	dir := cfg.Directory
	if searchGitHubRepo != "" {
		repo, err := scanner.ParseGitHubRepo(searchGitHubRepo)
		if err != nil {
			return err
		}
		source := scanner.NewGitHubSource(cfg.GitHubToken)
		defer source.Cleanup()

		if dir, err = source.Clone(ctx, repo); err != nil {
			if ctx.Err() != nil {
				return errInterrupted
			}
			return err
		}
	}

	fileScanner, err := scanner.NewFileScanner(cfg.Extensions, cfg.Encoding)
	if err != nil {
		return err
	}

	files := fileScanner.ListFiles(dir)
	if len(files) == 0 {
		fmt.Fprintln(out, "no files found to process")
		return nil
	}
	fmt.Fprintf(out, "Found %d files to process\n", len(files))

	comparison := report.NewComparison(dir, cfg.Keywords, cfg.Workers, len(files))
	comparison.SortFiles = cfg.SortResults

	for _, strategy := range strategies {
		searcher, err := search.New(strategy, fileScanner, search.ProcessConfig{
			Encoding: cfg.Encoding,
			Launcher: launcher,
		})
		if err != nil {
			return err
		}

		run, err := measure(ctx, comparison, searcher, files)
		if err != nil {
			return err
		}
		printRun(out, run, cfg.SortResults)
	}

	if diff, ok := comparison.Difference(); ok {
		fmt.Fprintf(out, "\nDifference between strategies: %.4f seconds\n", diff.Seconds())
	}

	reportPath, err := comparison.Save(cfg.ReportDir, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", reportPath)

	if cfg.ReportS3Bucket != "" {
		publisher, err := report.NewS3Publisher(ctx, cfg.ReportS3Bucket, cfg.ReportS3Prefix, cfg.AWSRegion)
		if err != nil {
			return err
		}
		uri, err := publisher.Publish(ctx, reportPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report uploaded to: %s\n", uri)
	}

	if store != nil {
		if err := recordHistory(ctx, store, comparison, reportPath); err != nil {
			log.Printf("Warning: failed to record search history: %v", err)
		}
	}

	return nil
}

// measure runs one strategy to completion. Searches cannot be cancelled, so
// on interrupt the command stops waiting and returns errInterrupted.
func measure(ctx context.Context, comparison *report.Comparison, searcher search.Searcher, files []string) (report.StrategyRun, error) {
	type outcome struct {
		run report.StrategyRun
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		run, err := comparison.Measure(context.WithoutCancel(ctx), searcher, files)
		done <- outcome{run: run, err: err}
	}()

	select {
	case <-ctx.Done():
		return report.StrategyRun{}, errInterrupted
	case o := <-done:
		return o.run, o.err
	}
}

func recordHistory(ctx context.Context, store *history.Store, comparison *report.Comparison, reportPath string) error {
	for _, run := range comparison.Runs {
		if _, err := store.Record(ctx, &types.RunRecord{
			RunAt:       comparison.GeneratedAt,
			Directory:   comparison.Directory,
			Strategy:    run.Strategy,
			Workers:     comparison.Workers,
			Files:       comparison.Files,
			KeywordsHit: len(run.Result),
			Duration:    run.Elapsed,
			ReportPath:  reportPath,
		}); err != nil {
			return err
		}
	}
	return nil
}

func printRun(out io.Writer, run report.StrategyRun, sorted bool) {
	result := run.Result
	if sorted {
		result = result.Sorted()
	}

	fmt.Fprintf(out, "\n%s search: %.4f seconds\n", run.Strategy, run.Elapsed.Seconds())
	if len(result) == 0 {
		fmt.Fprintln(out, "  (no keywords found)")
		return
	}
	for _, keyword := range result.ByFrequency() {
		fmt.Fprintf(out, "  %s: %d file(s)\n", keyword, len(result[keyword]))
		for _, f := range result[keyword] {
			fmt.Fprintf(out, "    %s\n", f)
		}
	}
}

// applySearchFlags overrides environment configuration with flags the user set
func applySearchFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("dir") {
		cfg.Directory = searchDirectory
	}
	if flags.Changed("keywords") {
		cfg.Keywords = types.NewKeywords(searchKeywords...)
		if len(cfg.Keywords) == 0 {
			return fmt.Errorf("--keywords must contain at least one keyword")
		}
	}
	if flags.Changed("workers") {
		cfg.Workers = searchWorkers
	}
	if flags.Changed("extensions") {
		cfg.Extensions = config.ParseExtensions(joinComma(searchExtensions))
	}
	if flags.Changed("encoding") {
		cfg.Encoding = searchEncoding
	}
	if flags.Changed("report-dir") {
		cfg.ReportDir = searchReportDir
	}
	if flags.Changed("format") {
		cfg.ReportFormat = searchFormat
	}
	if flags.Changed("sort") {
		cfg.SortResults = searchSort
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid search options: %w", err)
	}
	return nil
}

func parseStrategies(s string) ([]types.Strategy, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "all", "both":
		return types.Strategies, nil
	case string(types.StrategyThread), string(types.StrategyProcess):
		return []types.Strategy{types.Strategy(v)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q (expected thread, process or all)", search.ErrInvalidConfiguration, s)
	}
}

func joinComma(values []string) string {
	return strings.Join(values, ",")
}
