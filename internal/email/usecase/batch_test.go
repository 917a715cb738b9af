package usecase

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRunInBatchesPartitioning(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		batchSize   int
		wantBatches []int
		wantPauses  int
	}{
		{"nine items batch four", 9, 4, []int{4, 4, 1}, 2},
		{"exact multiple", 8, 4, []int{4, 4}, 1},
		{"single batch", 3, 5, []int{3}, 0},
		{"empty", 0, 4, nil, 0},
		{"batch size one", 3, 1, []int{1, 1, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var current int
			var batches []int
			pauses := 0

			sleep := func(ctx context.Context, d time.Duration) {
				// A pause marks a batch boundary
				mu.Lock()
				batches = append(batches, current)
				current = 0
				pauses++
				mu.Unlock()
			}

			runInBatches(context.Background(), tt.total, tt.batchSize, time.Millisecond, sleep, func(index int) {
				mu.Lock()
				current++
				mu.Unlock()
			})
			if current > 0 {
				batches = append(batches, current)
			}

			if pauses != tt.wantPauses {
				t.Errorf("pauses = %d, want %d", pauses, tt.wantPauses)
			}
			if len(batches) != len(tt.wantBatches) {
				t.Fatalf("batches = %v, want %v", batches, tt.wantBatches)
			}
			for i := range batches {
				if batches[i] != tt.wantBatches[i] {
					t.Errorf("batch %d size = %d, want %d", i, batches[i], tt.wantBatches[i])
				}
			}
		})
	}
}

func TestRunInBatchesConcurrentAccumulation(t *testing.T) {
	var mu sync.Mutex
	count := 0

	runInBatchesZeroDelay(context.Background(), 100, 10, func(index int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	if count != 100 {
		t.Fatalf("count = %d, want 100", count)
	}
}

func TestRunInBatchesSequentialAcrossBatches(t *testing.T) {
	var mu sync.Mutex
	seen := make([]int, 0, 6)

	runInBatchesZeroDelay(context.Background(), 6, 2, func(index int) {
		mu.Lock()
		seen = append(seen, index)
		mu.Unlock()
	})

	// Within a batch order is arbitrary, but batch k+1 never starts before
	// batch k settles, so indexes must appear grouped by batch.
	batchOf := func(i int) int { return seen[i] / 2 }
	for i := 1; i < len(seen); i++ {
		if batchOf(i) < batchOf(i-1) {
			t.Fatalf("item from batch %d ran after batch %d started: order %v", batchOf(i), batchOf(i-1), seen)
		}
	}
}

func runInBatchesZeroDelay(ctx context.Context, total, batchSize int, process func(index int)) {
	runInBatches(ctx, total, batchSize, 0, func(ctx context.Context, d time.Duration) {}, process)
}
