// Package fanout runs independent per-item work across a bounded worker pool.
package fanout

import (
	"context"
	"sync"
)

// Run executes fn(i) for i in [0, n) using at most workers goroutines. Each
// fn call must only touch state owned by its index, which keeps the pool free
// of cross-item coordination. When ctx finishes early, no new items are
// dispatched and Run returns after in-flight calls complete; the return value
// is the number of items actually started. workers <= 1 runs sequentially.
func Run(ctx context.Context, n, workers int, fn func(i int)) int {
	if n <= 0 {
		return 0
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				return i
			}
			fn(i)
		}
		return n
	}
	if workers > n {
		workers = n
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				fn(i)
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := 0; i < n; i++ {
		select {
		case indexes <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()
	return dispatched
}
