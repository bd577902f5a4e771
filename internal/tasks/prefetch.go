package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/deachawatss/pickbench/internal/shared"
	"golang.org/x/time/rate"
)

// PrefetchOpts contains configuration for bulk cache warming.
type PrefetchOpts struct {
	NumWorkers int     // Concurrent workers (default 3)
	RateLimit  float64 // Backend requests per second (default 5)
}

// RunPrefetchResult is the outcome of warming a single run.
type RunPrefetchResult struct {
	RunNumber int
	Success   bool
	Error     error
}

// PrefetchResult summarizes a bulk cache warming operation.
type PrefetchResult struct {
	TotalRuns int
	Warmed    int
	Failed    int
	Results   []RunPrefetchResult
}

// prefetchJob carries one run through the worker pool.
type prefetchJob struct {
	index     int
	runNumber int
}

// Prefetch warms the cache for the given runs before a shift, fetching each
// run's full detail and writing it to the cache synchronously.
//
// A worker pool bounded by a rate limiter keeps the backend comfortable.
// Individual failures are reported per run, not fatal to the batch. With a
// bounded cache, prefetching more runs than the capacity keeps only the
// most recently warmed ones.
func (e *Engine) Prefetch(ctx context.Context, prog chan<- ProgressUpdate, runNumbers []int, opts PrefetchOpts) (*PrefetchResult, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: picking backend not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: run cache not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &PrefetchResult{
		TotalRuns: len(runNumbers),
		Results:   make([]RunPrefetchResult, 0, len(runNumbers)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan prefetchJob, len(runNumbers))
	results := make(chan RunPrefetchResult, len(runNumbers))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.prefetchWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, runNumber := range runNumbers {
		e.sendProgress(prog, prefetchUpdate(i+1, len(runNumbers), runNumber))
		jobs <- prefetchJob{index: i, runNumber: runNumber}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Warmed++
		} else {
			result.Failed++
		}
		e.sendProgress(prog, prefetchDoneUpdate(completed, len(runNumbers), res.RunNumber, res.Error))
	}

	return result, nil
}

// prefetchWorker fetches and caches runs from the jobs channel.
func (e *Engine) prefetchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan prefetchJob,
	results chan<- RunPrefetchResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- RunPrefetchResult{RunNumber: job.runNumber, Error: err}
			continue
		}

		results <- e.prefetchOne(ctx, job.runNumber)
	}
}

// prefetchOne fetches a single run live and writes it to the cache.
// Unlike the interactive fetch path, the cache write is synchronous: warming
// the cache is the entire point here, so its failure is the result.
func (e *Engine) prefetchOne(ctx context.Context, runNumber int) RunPrefetchResult {
	detail, err := e.fetchLive(ctx, nil, runNumber)
	if err != nil {
		return RunPrefetchResult{RunNumber: runNumber, Error: err}
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return RunPrefetchResult{RunNumber: runNumber, Error: fmt.Errorf("failed to encode run: %w", err)}
	}

	if err := e.cache.Put(runNumber, payload); err != nil {
		return RunPrefetchResult{RunNumber: runNumber, Error: fmt.Errorf("failed to cache run: %w", err)}
	}

	return RunPrefetchResult{RunNumber: runNumber, Success: true}
}
