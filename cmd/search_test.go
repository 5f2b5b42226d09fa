package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/kwsearch/internal/history"
	"github.com/ca-srg/kwsearch/internal/search"
	"github.com/ca-srg/kwsearch/internal/types"
)

func resetSearchState(t *testing.T) {
	t.Helper()

	searchDirectory = ""
	searchKeywords = nil
	searchWorkers = 0
	searchExtensions = nil
	searchEncoding = ""
	searchStrategy = "all"
	searchGitHubRepo = ""
	searchReportDir = ""
	searchFormat = ""
	searchSort = false
	searchInteractive = false
	searchNoHistory = false

	// Values are reset through the bound variables above; slice flags append
	// on repeated Set, so only the parse state is cleared here.
	searchCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
}

// searchEnv points every output of a search at a temp dir and returns it
func searchEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)
	t.Setenv("KWSEARCH_REPORT_DIR", filepath.Join(root, "reports"))
	t.Setenv("KWSEARCH_HISTORY_DB", filepath.Join(root, "history.db"))
	t.Setenv("KWSEARCH_REPORT_S3_BUCKET", "")
	t.Setenv("OTEL_ENABLED", "false")
	return root
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func executeCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand_ComparesStrategies(t *testing.T) {
	resetSearchState(t)
	t.Cleanup(func() { resetSearchState(t) })
	root := searchEnv(t)

	data := filepath.Join(root, "data")
	writeFiles(t, data, map[string]string{
		"a.txt":   "Python rocks",
		"b.txt":   "no match here",
		"c.md":    "python PROGRAMMING",
		"d.bin":   "Python",
		"e.json":  `{"lang": "Go"}`,
		"f.jsonl": "Python",
	})

	out, err := executeCommand(t, rootCmd, "", "search", "-d", data, "-k", "Python,programming,Java", "-w", "2", "--sort")
	require.NoError(t, err)

	assert.Contains(t, out, "Found 4 files to process")
	assert.Contains(t, out, "thread search:")
	assert.Contains(t, out, "process search:")
	assert.Contains(t, out, "Python: 2 file(s)")
	assert.Contains(t, out, "programming: 1 file(s)")
	assert.NotContains(t, out, "Java:")
	assert.Contains(t, out, "Difference between strategies:")

	reports, err := filepath.Glob(filepath.Join(root, "reports", "search_results_*.txt"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	content, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "Search results (threads):")
	assert.Contains(t, string(content), "Search results (processes):")

	store, err := history.NewStore(filepath.Join(root, "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.ElementsMatch(t, []types.Strategy{types.StrategyThread, types.StrategyProcess},
		[]types.Strategy{records[0].Strategy, records[1].Strategy})
	assert.Equal(t, 4, records[0].Files)
	assert.Equal(t, 2, records[0].KeywordsHit)
}

func TestSearchCommand_NoFiles(t *testing.T) {
	resetSearchState(t)
	t.Cleanup(func() { resetSearchState(t) })
	root := searchEnv(t)

	empty := filepath.Join(root, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	out, err := executeCommand(t, rootCmd, "", "search", "-d", empty)
	require.NoError(t, err)
	assert.Contains(t, out, "no files found to process")

	_, err = os.Stat(filepath.Join(root, "reports"))
	assert.True(t, os.IsNotExist(err))
}

func TestSearchCommand_InvalidWorkers(t *testing.T) {
	resetSearchState(t)
	t.Cleanup(func() { resetSearchState(t) })
	root := searchEnv(t)

	data := filepath.Join(root, "data")
	writeFiles(t, data, map[string]string{"a.txt": "Python"})

	_, err := executeCommand(t, rootCmd, "", "search", "-d", data, "-w", "0", "--strategy", "thread")
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrInvalidConfiguration)
}

func TestSearchCommand_JSONReportSingleStrategy(t *testing.T) {
	resetSearchState(t)
	t.Cleanup(func() { resetSearchState(t) })
	root := searchEnv(t)

	data := filepath.Join(root, "data")
	writeFiles(t, data, map[string]string{"a.txt": "test data", "b.log": "another test"})

	out, err := executeCommand(t, rootCmd, "", "search", "-d", data, "-k", "test", "--strategy", "thread", "--format", "json", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "test: 2 file(s)")
	assert.NotContains(t, out, "process search:")

	reports, err := filepath.Glob(filepath.Join(root, "reports", "search_results_*.json"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	_, err = os.Stat(filepath.Join(root, "history.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestSearchCommand_Interactive(t *testing.T) {
	resetSearchState(t)
	t.Cleanup(func() { resetSearchState(t) })
	root := searchEnv(t)

	data := filepath.Join(root, "data")
	writeFiles(t, data, map[string]string{"a.txt": "golang and Rust"})

	stdin := data + "\ngolang, rust ,\nmany\n"
	out, err := executeCommand(t, rootCmd, stdin, "search", "-i", "--strategy", "thread", "--no-history")
	require.NoError(t, err)

	assert.Contains(t, out, "Directory to search")
	assert.Contains(t, out, "golang: 1 file(s)")
	assert.Contains(t, out, "rust: 1 file(s)")
}

func TestParseStrategies(t *testing.T) {
	got, err := parseStrategies("all")
	require.NoError(t, err)
	assert.Equal(t, types.Strategies, got)

	got, err = parseStrategies("Process")
	require.NoError(t, err)
	assert.Equal(t, []types.Strategy{types.StrategyProcess}, got)

	_, err = parseStrategies("fibers")
	assert.ErrorIs(t, err, search.ErrInvalidConfiguration)
}
