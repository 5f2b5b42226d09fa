package search

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned for a non-positive worker count
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Partition splits files into exactly workers contiguous partitions. All but
// the last hold len(files)/workers entries; the last also takes the
// remainder. Partitions may be empty when there are fewer files than workers.
func Partition(files []string, workers int) ([][]string, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be a positive integer, got %d", ErrInvalidConfiguration, workers)
	}

	base := len(files) / workers
	partitions := make([][]string, workers)

	for i := 0; i < workers; i++ {
		start := i * base
		end := start + base
		if i == workers-1 {
			end = len(files)
		}
		// Cap each partition so an append by one worker cannot spill into
		// the next partition's backing array.
		partitions[i] = files[start:end:end]
	}

	return partitions, nil
}
