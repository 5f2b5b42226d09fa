package search

import (
	"context"
	"sync"
	"time"

	"github.com/ca-srg/kwsearch/internal/types"
)

// guardedResult is the combined result shared by all goroutines of one
// search. Every access goes through its lock.
type guardedResult struct {
	mu     sync.Mutex
	result types.Result
}

func newGuardedResult() *guardedResult {
	return &guardedResult{result: types.Result{}}
}

// merge appends one worker's findings
func (g *guardedResult) merge(partial types.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.result.Merge(partial)
}

// take hands the accumulated result to the caller and detaches it from g
func (g *guardedResult) take() types.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	result := g.result
	g.result = types.Result{}
	return result
}

// ThreadSearcher runs each partition on its own goroutine in the shared
// address space. Workers scan outside the lock and take it once to merge.
type ThreadSearcher struct {
	scanner Scanner
}

// NewThreadSearcher creates a ThreadSearcher backed by scanner
func NewThreadSearcher(scanner Scanner) *ThreadSearcher {
	return &ThreadSearcher{scanner: scanner}
}

// Strategy implements Searcher
func (s *ThreadSearcher) Strategy() types.Strategy {
	return types.StrategyThread
}

// Search implements Searcher
func (s *ThreadSearcher) Search(ctx context.Context, files []string, keywords types.Keywords, workers int) (types.Result, error) {
	partitions, err := Partition(files, workers)
	if err != nil {
		return nil, err
	}

	ctx, span := startSearchSpan(ctx, types.StrategyThread, len(files), len(keywords), workers)
	defer span.End()

	if len(files) == 0 {
		return types.Result{}, nil
	}

	start := time.Now()
	combined := newGuardedResult()

	var wg sync.WaitGroup
	for i, partition := range partitions {
		wg.Add(1)
		go func(id int, part []string) {
			defer wg.Done()
			partial := scanPartition(s.scanner, id, part, keywords)
			combined.merge(partial)
		}(i, partition)
	}

	wg.Wait()

	result := combined.take()
	recordSearch(ctx, types.StrategyThread, len(files), time.Since(start))
	return result, nil
}
