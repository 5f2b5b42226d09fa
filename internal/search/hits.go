package search

import (
	"fmt"

	"github.com/ca-srg/kwsearch/internal/types"
)

// encodeHits turns a worker's partial result into keyword index -> file
// indices, both relative to the worker's task. File order within each
// keyword is kept.
func encodeHits(partial types.Result, files []string, keywords types.Keywords) (map[int][]int, error) {
	fileIndex := make(map[string]int, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		fileIndex[files[i]] = i
	}
	keywordIndex := make(map[string]int, len(keywords))
	for i := len(keywords) - 1; i >= 0; i-- {
		keywordIndex[keywords[i]] = i
	}

	hits := make(map[int][]int, len(partial))
	for keyword, paths := range partial {
		k, ok := keywordIndex[keyword]
		if !ok {
			return nil, fmt.Errorf("keyword %q is not part of the task", keyword)
		}
		for _, path := range paths {
			f, ok := fileIndex[path]
			if !ok {
				return nil, fmt.Errorf("file %q is not part of the task", path)
			}
			hits[k] = append(hits[k], f)
		}
	}
	return hits, nil
}

// decodeHits maps indices produced by encodeHits back onto the partition
// and keyword list the task was built from.
func decodeHits(hits map[int][]int, files []string, keywords types.Keywords) (types.Result, error) {
	result := make(types.Result, len(hits))
	for k, indices := range hits {
		if k < 0 || k >= len(keywords) {
			return nil, fmt.Errorf("keyword index %d out of range [0,%d)", k, len(keywords))
		}
		for _, f := range indices {
			if f < 0 || f >= len(files) {
				return nil, fmt.Errorf("file index %d out of range [0,%d)", f, len(files))
			}
			result.Add(keywords[k], files[f])
		}
	}
	return result, nil
}
