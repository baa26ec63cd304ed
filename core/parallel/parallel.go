// Package parallel provides the chunked worker pool used by the objective
// functions to spread per-sample work over a fixed number of goroutines,
// and ParallelizeN for coarse jobs such as cross-validation folds.
package parallel

import (
	"sync"
)

// DefaultChunkSize bounds the number of samples handed to a worker in one job.
const DefaultChunkSize = 1 << 14

// ParallelizeN splits [0, items) into at most workers contiguous ranges and
// runs fn on each range in its own goroutine.
func ParallelizeN(workers, items int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
