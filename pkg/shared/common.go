package shared

import (
	"context"
	"sync"
)

// ForEachBounded calls f for every index in [0, n) using at most limit goroutines
// (limit <= 0 means one goroutine per index). No new calls start once ctx is done.
// It returns after every started call has returned, with the number of calls started.
func ForEachBounded(ctx context.Context, limit, n int, f func(i int)) int {
	if limit <= 0 || limit > n {
		limit = n
	}
	if limit < 1 {
		limit = 1
	}

	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	launched := 0

	for i := 0; i < n; i++ {
		select {
		case guard <- struct{}{}: // would block if guard channel is already filled
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		launched++
		go func(i int) {
			defer wg.Done()
			defer func() { <-guard }()
			f(i)
		}(i)
	}
	wg.Wait()
	return launched
}
