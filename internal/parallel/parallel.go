// Package parallel distributes index ranges over a bounded number of goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// For splits [0, n) into at most workers contiguous chunks and calls body
// once per chunk. It returns after every chunk has finished, so consecutive
// calls act as barriers.
func For(workers, n int, body func(lo, hi int)) error {
	return ForErr(workers, n, func(lo, hi int) error {
		body(lo, hi)
		return nil
	})
}

// ForErr is For with a fallible body. The first error is returned once all
// started chunks have finished.
func ForErr(workers, n int, body func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		return body(0, n)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return body(lo, hi)
		})
	}
	return g.Wait()
}
