// Package parallel provides a small helper for fanning independent work
// across CPU cores. Per-feature Cox fits and the (model x configuration)
// evaluation runs are mutually independent, so parallelism here is an
// optimization only; results must not depend on scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across workers and runs fn on each half-open
// range [start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
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

// ParallelizeWithThreshold runs sequentially below the threshold and in
// parallel above it. Tiny cohorts fit faster without goroutine overhead.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
