package search

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/ca-srg/kwsearch/internal/types"
)

// Scanner checks one file for keywords. Read failures are reported by the
// scanner and yield an empty result.
type Scanner interface {
	Scan(filePath string, keywords types.Keywords) types.Result
}

// Searcher runs a keyword search over a file list with a fixed number of
// workers and merges their partial results.
//
// The context carries trace information only: once started, every worker
// runs to completion. The only error returned for a well-formed environment
// is ErrInvalidConfiguration.
type Searcher interface {
	Search(ctx context.Context, files []string, keywords types.Keywords, workers int) (types.Result, error)
	Strategy() types.Strategy
}

// New returns the Searcher implementing strategy
func New(strategy types.Strategy, scanner Scanner, cfg ProcessConfig) (Searcher, error) {
	switch strategy {
	case types.StrategyThread:
		return NewThreadSearcher(scanner), nil
	case types.StrategyProcess:
		return NewProcessSearcher(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, strategy)
	}
}

const progressInterval = 2 * time.Second

// scanPartition scans files sequentially and accumulates a worker-local
// partial result. It touches no shared state.
func scanPartition(scanner Scanner, workerID int, files []string, keywords types.Keywords) types.Result {
	partial := types.Result{}
	progress := rate.Sometimes{Interval: progressInterval}

	for i, file := range files {
		partial.Merge(scanner.Scan(file, keywords))

		progress.Do(func() {
			log.Printf("Worker %d progress: %d/%d files", workerID, i+1, len(files))
		})
	}

	return partial
}
