package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchRun Phase = iota
	FetchItems
	CacheWrite
	Prefetch
)

func (p Phase) String() string {
	switch p {
	case FetchRun:
		return "fetch_run"
	case FetchItems:
		return "fetch_items"
	case CacheWrite:
		return "cache_write"
	case Prefetch:
		return "prefetch"
	default:
		return ""
	}
}

func fetchRunUpdate(runNumber int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching run %d...", runNumber),
	}
}

func fetchItemsUpdate(step, total int, batchNo string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching items for batch %s...", step, total, batchNo),
	}
}

func cacheWriteUpdate(runNumber int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheWrite,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Caching run %d for offline use...", runNumber),
	}
}

func prefetchUpdate(step, total, runNumber int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Prefetch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Warming cache for run %d...", step, total, runNumber),
	}
}

func prefetchDoneUpdate(step, total, runNumber int, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   Prefetch,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ run %d: %v", step, total, runNumber, err),
		}
	}
	return ProgressUpdate{
		Phase:   Prefetch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ run %d", step, total, runNumber),
	}
}
