package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/kwsearch/internal/config"
	"github.com/ca-srg/kwsearch/internal/scanner"
)

var filesCmd = &cobra.Command{
	Use:   "files [directory]",
	Short: "List the files a search would scan",
	Long: `
List every file under the directory whose extension is accepted by
KWSEARCH_EXTENSIONS (or --extensions). The directory defaults to
KWSEARCH_DIRECTORY.
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFiles,
}

func init() {
	filesCmd.Flags().StringSlice("extensions", nil, "Accepted file extensions (default from KWSEARCH_EXTENSIONS)")
}

func runFiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dir := cfg.Directory
	if len(args) == 1 {
		dir = args[0]
	}
	if cmd.Flags().Changed("extensions") {
		exts, _ := cmd.Flags().GetStringSlice("extensions")
		cfg.Extensions = config.ParseExtensions(joinComma(exts))
	}

	fileScanner, err := scanner.NewFileScanner(cfg.Extensions, cfg.Encoding)
	if err != nil {
		return err
	}

	files := fileScanner.ListFiles(dir)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d files in %s\n", len(files), dir)
	for _, f := range files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	return nil
}
