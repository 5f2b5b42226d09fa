package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ca-srg/kwsearch/internal/search"
	"github.com/ca-srg/kwsearch/internal/types"
)

// Format is a report serialization
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const fileTimeLayout = "20060102_150405"

// ParseFormat accepts text, json and yaml in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (expected text, json or yaml)", s)
	}
}

// Extension returns the file extension used by Save
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// StrategyRun is one strategy's outcome within a comparison
type StrategyRun struct {
	Strategy types.Strategy `json:"strategy" yaml:"strategy"`
	Elapsed  time.Duration  `json:"elapsed_ns" yaml:"elapsed_ns"`
	Result   types.Result   `json:"results" yaml:"results"`
}

// Comparison collects the runs of every strategy over the same inputs
type Comparison struct {
	Directory   string
	Keywords    types.Keywords
	Workers     int
	Files       int
	GeneratedAt time.Time
	// SortFiles sorts each keyword's file list when the report is written
	SortFiles bool
	Runs      []StrategyRun
}

// NewComparison starts an empty comparison for the given search parameters
func NewComparison(directory string, keywords types.Keywords, workers, files int) *Comparison {
	return &Comparison{
		Directory:   directory,
		Keywords:    keywords,
		Workers:     workers,
		Files:       files,
		GeneratedAt: time.Now(),
	}
}

// Measure runs s over files with the comparison's keywords and worker
// count, timing the call, and records the run
func (c *Comparison) Measure(ctx context.Context, s search.Searcher, files []string) (StrategyRun, error) {
	log.Printf("Starting %s search with %d workers over %d files", s.Strategy(), c.Workers, len(files))

	start := time.Now()
	result, err := s.Search(ctx, files, c.Keywords, c.Workers)
	if err != nil {
		return StrategyRun{}, fmt.Errorf("%s search failed: %w", s.Strategy(), err)
	}
	run := StrategyRun{Strategy: s.Strategy(), Elapsed: time.Since(start), Result: result}

	log.Printf("%s search finished in %.4f seconds", s.Strategy(), run.Elapsed.Seconds())
	c.Runs = append(c.Runs, run)
	return run, nil
}

// Run returns the recorded run for strategy
func (c *Comparison) Run(strategy types.Strategy) (StrategyRun, bool) {
	for _, r := range c.Runs {
		if r.Strategy == strategy {
			return r, true
		}
	}
	return StrategyRun{}, false
}

// Difference is the absolute elapsed time between the thread and process
// runs. ok is false unless both were recorded.
func (c *Comparison) Difference() (d time.Duration, ok bool) {
	thread, ok1 := c.Run(types.StrategyThread)
	process, ok2 := c.Run(types.StrategyProcess)
	if !ok1 || !ok2 {
		return 0, false
	}
	d = thread.Elapsed - process.Elapsed
	if d < 0 {
		d = -d
	}
	return d, true
}

func (c *Comparison) result(run StrategyRun) types.Result {
	if c.SortFiles {
		return run.Result.Sorted()
	}
	return run.Result
}

// Write serializes the comparison to w
func (c *Comparison) Write(w io.Writer, format Format) error {
	switch format {
	case FormatText, "":
		return c.writeText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.document())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c.document()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// Save writes the report to dir as search_results_YYYYMMDD_HHMMSS.<ext>
// and returns its path
func (c *Comparison) Save(dir string, format Format) (string, error) {
	if format == "" {
		format = FormatText
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := "search_results_" + c.GeneratedAt.Format(fileTimeLayout) + format.Extension()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	if err := c.Write(f, format); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	return path, nil
}
