package escape

import (
	"runtime"
	"sync"
)

// ParallelFor executes fn over [0, n) split into contiguous chunks, one
// goroutine per chunk. Small ranges run on the calling goroutine.
func ParallelFor(n, minChunk, workers int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// minColumns keeps tiny grids on one goroutine.
const minColumns = 8

// eachColumn runs fn for every (frame, x) column of the grid. lo and hi are
// the flat offsets of the column's first and one-past-last point.
func (e *Engine) eachColumn(fn func(f, lo, hi int)) {
	w, h := e.shape.Width, e.shape.Height
	ParallelFor(e.shape.Frames*w, minColumns, e.workers, func(start, end int) {
		for u := start; u < end; u++ {
			lo := u * h
			fn(u/w, lo, lo+h)
		}
	})
}
