package usecase

import (
	"context"
	"sync"
	"time"
)

// runInBatches partitions items into consecutive groups of at most batchSize,
// runs each group's items concurrently, and pauses for delay between groups.
// The pause keeps steady-state throughput under the AI provider's
// requests-per-minute ceiling even though calls within a group burst.
//
// The sleep function is injectable for tests; nil means time.Sleep with
// context cancellation.
func runInBatches(ctx context.Context, total, batchSize int, delay time.Duration, sleep func(ctx context.Context, d time.Duration), process func(index int)) {
	if batchSize <= 0 {
		batchSize = 1
	}
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		}
	}

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				process(index)
			}(i)
		}
		wg.Wait()

		// No pause after the final group
		if end < total && delay > 0 {
			sleep(ctx, delay)
		}
	}
}
