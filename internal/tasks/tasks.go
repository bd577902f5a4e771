// package tasks implements the run data gateway: network-first fetches with offline cache fallback.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deachawatss/pickbench/internal/models"
	"github.com/deachawatss/pickbench/internal/services"
	"github.com/deachawatss/pickbench/internal/shared"
)

// ConnectivityChecker reports whether the backend is reachable at all.
// Satisfied by [shared.Monitor].
type ConnectivityChecker interface {
	Online() bool
}

// RunCache is the subset of the cache repository the engine depends on.
type RunCache interface {
	Put(runNumber int, payload []byte) error
	Get(runNumber int) (*models.CachedRun, error)
}

// Source identifies which branch of the fetch algorithm produced a result.
type Source int

const (
	SourceLive  Source = iota // Fresh network fetch
	SourceCache               // Served from the offline run cache
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceCache:
		return "cache"
	default:
		return "unknown"
	}
}

// RunDetailResult is a fetched run snapshot tagged with its provenance so the
// UI can distinguish live data from cached/stale data.
type RunDetailResult struct {
	Detail   *models.RunDetail
	Source   Source
	CachedAt time.Time // Zero for live results
}

// Engine implements the run data gateway.
type Engine struct {
	backend services.Service
	cache   RunCache
	monitor ConnectivityChecker
	logger  *log.Logger
}

// NewEngine creates an Engine with the provided collaborators.
// The cache and monitor may be nil; the engine degrades to plain network fetches.
func NewEngine(backend services.Service, cache RunCache, monitor ConnectivityChecker, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Engine{
		backend: backend,
		cache:   cache,
		monitor: monitor,
		logger:  shared.WithLogger(logger, "component", "gateway"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// GetRunDetails fetches a run's full detail, network-first with cache fallback.
func (e *Engine) GetRunDetails(ctx context.Context, progress chan<- ProgressUpdate, runNumber int) (*RunDetailResult, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: picking backend not initialized", shared.ErrServiceUnavailable)
	}

	detail, err := e.fetchLive(ctx, progress, runNumber)
	if err != nil {
		return e.fallback(runNumber, err)
	}

	e.cacheAsync(progress, runNumber, detail)

	return &RunDetailResult{Detail: detail, Source: SourceLive}, nil
}

// fetchLive performs the network fetch: run header plus every batch row's items.
// Individual batch row failures are logged and skipped, never fatal to the fetch.
func (e *Engine) fetchLive(ctx context.Context, progress chan<- ProgressUpdate, runNumber int) (*models.RunDetail, error) {
	e.sendProgress(progress, fetchRunUpdate(runNumber))

	header, rows, err := e.backend.GetRun(ctx, runNumber)
	if err != nil {
		return nil, err
	}

	detail := &models.RunDetail{Header: *header, Rows: rows}

	for i, row := range rows {
		e.sendProgress(progress, fetchItemsUpdate(i+1, len(rows), row.BatchNo))

		items, err := e.backend.GetBatchItems(ctx, runNumber, row.RowNumber)
		if err != nil {
			e.logger.Warn("skipping batch row", "run", runNumber, "row", row.RowNumber, "error", err)
			continue
		}

		detail.Items = append(detail.Items, items...)
	}

	return detail, nil
}

// cacheAsync writes the snapshot to the run cache without making the caller
// wait. A failed write is logged only; caching is a best-effort enhancement
// and must never fail the fetch that triggered it.
func (e *Engine) cacheAsync(progress chan<- ProgressUpdate, runNumber int, detail *models.RunDetail) {
	if e.cache == nil {
		return
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		e.logger.Warn("failed to encode run for cache", "run", runNumber, "error", err)
		return
	}

	e.sendProgress(progress, cacheWriteUpdate(runNumber))

	go func() {
		if err := e.cache.Put(runNumber, payload); err != nil {
			e.logger.Warn("cache write failed", "run", runNumber, "error", err)
		}
	}()
}

// fallback consults the cache after a failed network fetch.
//
// Offline, a miss is the distinct "unavailable offline" condition. Online but
// erroring, the cache is still tried on the theory that degraded service
// beats none; a miss then propagates the original error unchanged so the
// caller keeps full diagnostic detail.
func (e *Engine) fallback(runNumber int, cause error) (*RunDetailResult, error) {
	offline := e.monitor != nil && !e.monitor.Online()

	if e.cache != nil {
		cached, err := e.cache.Get(runNumber)
		if err == nil {
			detail, derr := cached.Detail()
			if derr == nil {
				e.logger.Info("serving cached run", "run", runNumber, "cachedAt", cached.CachedAt(), "offline", offline)
				return &RunDetailResult{
					Detail:   detail,
					Source:   SourceCache,
					CachedAt: cached.CachedAt(),
				}, nil
			}
			e.logger.Warn("cached run is unreadable", "run", runNumber, "error", derr)
		}
	}

	if offline {
		return nil, fmt.Errorf("run %d: %w", runNumber, shared.ErrUnavailableOffline)
	}

	return nil, cause
}
