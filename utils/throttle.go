package utils

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
)

const (
	defaultThrottleTarget  = 5 * time.Minute
	defaultThrottleWorkers = 3
)

// ThrottledFetch runs fn over items with bounded concurrency and a
// randomized per-item delay so that the whole batch completes in roughly
// target wall-clock time without hammering the upstream sources in bursts.
// Item failures are logged and dropped; the returned slice holds only the
// successful results, in no particular order.
func ThrottledFetch[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), target time.Duration, maxWorkers int) []R {
	if len(items) == 0 {
		return nil
	}
	if target <= 0 {
		target = defaultThrottleTarget
	}
	if maxWorkers <= 0 {
		maxWorkers = defaultThrottleWorkers
	}

	// With maxWorkers items in flight, the average per-item delay has to be
	// scaled up by the worker count to hit the target duration overall.
	avgDelay := target / time.Duration(len(items)) * time.Duration(maxWorkers)

	var (
		mu      sync.Mutex
		results []R
		failed  int
	)

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for idx, item := range items {
		p.Go(func() {
			delay := avgDelay/2 + time.Duration(rand.Int63n(int64(avgDelay)+1))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			start := time.Now()
			result, err := fn(ctx, item)
			if err != nil {
				log.Printf("[throttle] item %d/%d failed after %.2fs: %v", idx+1, len(items), time.Since(start).Seconds(), err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			log.Printf("[throttle] processed item %d/%d in %.2fs", idx+1, len(items), time.Since(start).Seconds())
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	if failed > 0 {
		log.Printf("[throttle] batch complete: %d/%d succeeded, %d failed", len(results), len(items), failed)
	}
	return results
}
