package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ca-srg/kwsearch/internal/types"
)

type stubSearcher struct {
	strategy types.Strategy
	result   types.Result
	err      error
	delay    time.Duration
}

func (s *stubSearcher) Search(_ context.Context, _ []string, _ types.Keywords, _ int) (types.Result, error) {
	time.Sleep(s.delay)
	return s.result, s.err
}

func (s *stubSearcher) Strategy() types.Strategy { return s.strategy }

func sampleComparison() *Comparison {
	c := NewComparison("/data", types.NewKeywords("Python", "test", "Java"), 4, 3)
	c.GeneratedAt = time.Date(2026, 10, 17, 9, 30, 5, 0, time.UTC)
	c.Runs = []StrategyRun{
		{
			Strategy: types.StrategyThread,
			Elapsed:  1500 * time.Millisecond,
			Result: types.Result{
				"Python": {"/data/b.txt", "/data/a.txt"},
				"test":   {"/data/c.txt"},
			},
		},
		{
			Strategy: types.StrategyProcess,
			Elapsed:  1250 * time.Millisecond,
			Result: types.Result{
				"Python": {"/data/a.txt", "/data/b.txt"},
				"test":   {"/data/c.txt"},
			},
		},
	}
	return c
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, ".txt", FormatText.Extension())
	assert.Equal(t, ".yaml", FormatYAML.Extension())
}

func TestMeasure(t *testing.T) {
	c := NewComparison("/data", types.NewKeywords("x"), 2, 1)

	run, err := c.Measure(context.Background(), &stubSearcher{
		strategy: types.StrategyThread,
		result:   types.Result{"x": {"/data/a.txt"}},
		delay:    10 * time.Millisecond,
	}, []string{"/data/a.txt"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, run.Elapsed, 10*time.Millisecond)
	assert.Len(t, c.Runs, 1)

	_, ok := c.Difference()
	assert.False(t, ok)

	_, err = c.Measure(context.Background(), &stubSearcher{
		strategy: types.StrategyProcess,
		err:      assert.AnError,
	}, nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, c.Runs, 1)
}

func TestDifference(t *testing.T) {
	diff, ok := sampleComparison().Difference()
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, diff)
}

func TestWriteText(t *testing.T) {
	c := sampleComparison()
	c.SortFiles = true

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatText))
	out := buf.String()

	assert.Contains(t, out, "- Keywords: Python, test, Java\n")
	assert.Contains(t, out, "- Workers: 4\n")
	assert.Contains(t, out, "Found 3 files to process")
	assert.Contains(t, out, "Search results (threads):")
	assert.Contains(t, out, "Elapsed: 1.5000 seconds")
	assert.Contains(t, out, "Search results (processes):")
	assert.Contains(t, out, "- Found in 2 files:\n  • /data/a.txt\n  • /data/b.txt\n")
	assert.Contains(t, out, "Unique files: 3\n")
	assert.Contains(t, out, "Keywords found: 2\n")
	assert.Contains(t, out, "- 'Python': 2 file(s)\n- 'test': 1 file(s)\n")
	assert.Contains(t, out, "- Difference: 0.2500 seconds")
	assert.NotContains(t, out, "Java'")
}

func TestWriteText_UnsortedKeepsMergeOrder(t *testing.T) {
	c := sampleComparison()
	c.Runs = c.Runs[:1]

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatText))

	assert.Contains(t, buf.String(), "  • /data/b.txt\n  • /data/a.txt\n")
	assert.NotContains(t, buf.String(), "Timing comparison")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleComparison().Write(&buf, FormatJSON))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "/data", doc.Directory)
	require.Len(t, doc.Runs, 2)
	assert.Equal(t, types.StrategyThread, doc.Runs[0].Strategy)
	assert.InDelta(t, 1.5, doc.Runs[0].ElapsedSeconds, 1e-9)
	assert.Equal(t, []keywordCount{{"Python", 2}, {"test", 1}}, doc.Runs[0].Frequency)
	require.NotNil(t, doc.Comparison)
	assert.InDelta(t, 0.25, doc.Comparison.DifferenceSeconds, 1e-9)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleComparison().Write(&buf, FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "/data", doc["directory"])
	assert.Equal(t, 4, doc["workers"])
	runs, ok := doc["runs"].([]any)
	require.True(t, ok)
	assert.Len(t, runs, 2)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	for _, format := range []Format{FormatText, FormatJSON, FormatYAML} {
		path, err := sampleComparison().Save(dir, format)
		require.NoError(t, err)

		assert.Equal(t, "search_results_20261017_093005"+format.Extension(), filepath.Base(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "/data"))
	}
}

func TestWriteResult_FrequencyUsesCounts(t *testing.T) {
	var buf bytes.Buffer
	writeResult(&buf, types.Result{
		"go":   {"/a", "/b", "/c"},
		"rust": {"/a"},
	})

	out := buf.String()
	assert.Contains(t, out, "Keywords found: 2\n")
	assert.Contains(t, out, "- 'go': 3 file(s)\n- 'rust': 1 file(s)\n")
}
