package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deachawatss/pickbench/internal/shared"
	"github.com/deachawatss/pickbench/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RunFetch fetches a run's full detail, network-first with cache fallback,
// and reports which branch served it.
func (r *Runner) RunFetch(ctx context.Context, cmd *cli.Command) error {
	runNumber := int(cmd.Int("number"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	result, err := engine.GetRunDetails(ctx, progress, runNumber)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(result.Detail, pretty)
	}

	switch result.Source {
	case tasks.SourceCache:
		r.writePlainln("⚠ Run %d served from cache (cached %s); data may be stale",
			runNumber, result.CachedAt.Format("2006-01-02 15:04:05"))
	default:
		r.writePlainln("✓ Run %d fetched live", runNumber)
	}

	header := result.Detail.Header
	r.writePlainln("  Formula: %s (%s)", header.FormulaID, header.FormulaDesc)
	r.writePlainln("  Status: %s", header.Status)
	r.writePlainln("  Batch rows: %d, item lines: %d", len(result.Detail.Rows), len(result.Detail.Items))

	return nil
}

// RunPrefetch warms the offline cache for a comma-separated list of runs.
func (r *Runner) RunPrefetch(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.String("numbers")
	workers := int(cmd.Int("workers"))
	rateLimit := cmd.Float("rate")

	var runNumbers []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("%w: %q is not a run number", shared.ErrInvalidFlag, part)
		}
		runNumbers = append(runNumbers, n)
	}

	if len(runNumbers) == 0 {
		return fmt.Errorf("%w: no run numbers given", shared.ErrMissingArgument)
	}

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	result, err := engine.Prefetch(ctx, progress, runNumbers, tasks.PrefetchOpts{
		NumWorkers: workers,
		RateLimit:  rateLimit,
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Prefetch complete: %d warmed, %d failed of %d", result.Warmed, result.Failed, result.TotalRuns)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlainln("  ✗ run %d: %v", res.RunNumber, res.Error)
		}
	}

	return nil
}
