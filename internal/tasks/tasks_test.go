package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/deachawatss/pickbench/internal/models"
	"github.com/deachawatss/pickbench/internal/services"
	"github.com/deachawatss/pickbench/internal/shared"
	mocks "github.com/deachawatss/pickbench/internal/testing"
)

// mockCache is a map-backed RunCache that signals completed writes, since the
// interactive fetch path writes asynchronously.
type mockCache struct {
	mu      sync.Mutex
	store   map[int][]byte
	putErr  error
	written chan int
}

func newMockCache() *mockCache {
	return &mockCache{
		store:   make(map[int][]byte),
		written: make(chan int, 16),
	}
}

func (c *mockCache) Put(runNumber int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.putErr != nil {
		return c.putErr
	}
	c.store[runNumber] = payload
	select {
	case c.written <- runNumber:
	default:
	}
	return nil
}

func (c *mockCache) Get(runNumber int) (*models.CachedRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, ok := c.store[runNumber]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", runNumber, shared.ErrCacheMiss)
	}

	cached := models.NewCachedRun(1, runNumber, payload)
	cached.SetID("cached-" + fmt.Sprint(runNumber))
	cached.SetCachedAt(time.Date(2026, 8, 27, 6, 30, 0, 0, time.UTC))
	return cached, nil
}

// seed stores a marshaled detail directly, bypassing Put.
func (c *mockCache) seed(t *testing.T, runNumber int, detail *models.RunDetail) {
	t.Helper()
	payload, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("failed to marshal detail: %v", err)
	}
	c.mu.Lock()
	c.store[runNumber] = payload
	c.mu.Unlock()
}

// awaitWrite blocks until runNumber's async cache write lands.
func (c *mockCache) awaitWrite(t *testing.T, runNumber int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-c.written:
			if n == runNumber {
				return
			}
		case <-deadline:
			t.Fatalf("cache write for run %d never happened", runNumber)
		}
	}
}

func healthyBackend(runNumber int) *mocks.MockBackend {
	return &mocks.MockBackend{
		GetRunFunc: func(ctx context.Context, n int) (*models.RunHeader, []models.BatchRow, error) {
			return &models.RunHeader{RunNumber: n, FormulaID: "TFC-PB", Status: "NEW", BatchCount: 2},
				[]models.BatchRow{
					{RunNumber: n, RowNumber: 1, BatchNo: "B-001"},
					{RunNumber: n, RowNumber: 2, BatchNo: "B-002"},
				}, nil
		},
		GetBatchItemsFunc: func(ctx context.Context, n, row int) ([]models.BatchItem, error) {
			return []models.BatchItem{
				{RunNumber: n, RowNumber: row, LineID: 1, ItemKey: "SUGAR", ToPickedQty: 12.5},
			}, nil
		},
	}
}

// testEngine takes the interface type so a literal nil backend stays a nil
// interface and exercises the engine's missing-collaborator guards.
func testEngine(backend services.Service, cache RunCache, monitor ConnectivityChecker) *Engine {
	return NewEngine(backend, cache, monitor, shared.NewLogger(io.Discard))
}

func sampleDetail(runNumber int) *models.RunDetail {
	return &models.RunDetail{
		Header: models.RunHeader{RunNumber: runNumber, FormulaID: "TFC-PB", Status: "NEW", BatchCount: 1},
		Rows:   []models.BatchRow{{RunNumber: runNumber, RowNumber: 1, BatchNo: "B-001"}},
		Items:  []models.BatchItem{{RunNumber: runNumber, RowNumber: 1, ItemKey: "SUGAR"}},
	}
}

func TestGetRunDetailsLive(t *testing.T) {
	t.Run("FetchesHeaderRowsAndItems", func(t *testing.T) {
		cache := newMockCache()
		engine := testEngine(healthyBackend(213972), cache, &mocks.StubMonitor{IsOnline: true})

		result, err := engine.GetRunDetails(context.Background(), nil, 213972)
		if err != nil {
			t.Fatalf("GetRunDetails failed: %v", err)
		}

		if result.Source != SourceLive {
			t.Errorf("expected live source, got %v", result.Source)
		}
		if !result.CachedAt.IsZero() {
			t.Error("live results carry no cache timestamp")
		}
		if result.Detail.Header.RunNumber != 213972 {
			t.Errorf("unexpected header: %+v", result.Detail.Header)
		}
		if len(result.Detail.Rows) != 2 || len(result.Detail.Items) != 2 {
			t.Errorf("expected 2 rows and 2 items, got %d and %d",
				len(result.Detail.Rows), len(result.Detail.Items))
		}
	})

	t.Run("WritesCacheAsynchronously", func(t *testing.T) {
		cache := newMockCache()
		engine := testEngine(healthyBackend(100), cache, &mocks.StubMonitor{IsOnline: true})

		if _, err := engine.GetRunDetails(context.Background(), nil, 100); err != nil {
			t.Fatalf("GetRunDetails failed: %v", err)
		}

		cache.awaitWrite(t, 100)

		cached, err := cache.Get(100)
		if err != nil {
			t.Fatalf("expected cached run: %v", err)
		}
		detail, err := cached.Detail()
		if err != nil {
			t.Fatalf("cached payload unreadable: %v", err)
		}
		if detail.Header.RunNumber != 100 {
			t.Errorf("unexpected cached detail: %+v", detail.Header)
		}
	})

	t.Run("CacheWriteFailureDoesNotFailFetch", func(t *testing.T) {
		cache := newMockCache()
		cache.putErr = errors.New("disk full")
		engine := testEngine(healthyBackend(100), cache, &mocks.StubMonitor{IsOnline: true})

		result, err := engine.GetRunDetails(context.Background(), nil, 100)
		if err != nil {
			t.Fatalf("fetch must succeed despite cache failure: %v", err)
		}
		if result.Source != SourceLive {
			t.Errorf("expected live source, got %v", result.Source)
		}
	})

	t.Run("FailingBatchRowIsSkipped", func(t *testing.T) {
		backend := healthyBackend(100)
		backend.GetBatchItemsFunc = func(ctx context.Context, n, row int) ([]models.BatchItem, error) {
			if row == 1 {
				return nil, errors.New("row service hiccup")
			}
			return []models.BatchItem{{RunNumber: n, RowNumber: row, ItemKey: "SALT"}}, nil
		}

		engine := testEngine(backend, newMockCache(), &mocks.StubMonitor{IsOnline: true})

		result, err := engine.GetRunDetails(context.Background(), nil, 100)
		if err != nil {
			t.Fatalf("one bad row must not fail the fetch: %v", err)
		}

		if len(result.Detail.Items) != 1 || result.Detail.Items[0].RowNumber != 2 {
			t.Errorf("expected only row 2's items, got %+v", result.Detail.Items)
		}
		if len(result.Detail.Rows) != 2 {
			t.Errorf("row listing itself is untouched, got %+v", result.Detail.Rows)
		}
	})

	t.Run("NilCacheAndMonitorDegradeGracefully", func(t *testing.T) {
		engine := testEngine(healthyBackend(100), nil, nil)

		result, err := engine.GetRunDetails(context.Background(), nil, 100)
		if err != nil {
			t.Fatalf("GetRunDetails failed: %v", err)
		}
		if result.Source != SourceLive {
			t.Errorf("expected live source, got %v", result.Source)
		}
	})

	t.Run("ProgressUpdatesNeverBlock", func(t *testing.T) {
		engine := testEngine(healthyBackend(100), newMockCache(), &mocks.StubMonitor{IsOnline: true})

		// Unbuffered channel nobody reads: every send must be dropped, not block.
		progress := make(chan ProgressUpdate)

		done := make(chan struct{})
		go func() {
			defer close(done)
			engine.GetRunDetails(context.Background(), progress, 100)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("fetch blocked on progress channel")
		}
	})
}

func TestGetRunDetailsFallback(t *testing.T) {
	failingBackend := func() *mocks.MockBackend {
		return &mocks.MockBackend{
			GetRunFunc: func(ctx context.Context, n int) (*models.RunHeader, []models.BatchRow, error) {
				return nil, nil, fmt.Errorf("%w: connection refused", shared.ErrAPIRequest)
			},
		}
	}

	t.Run("OfflineHitServesCache", func(t *testing.T) {
		cache := newMockCache()
		cache.seed(t, 213972, sampleDetail(213972))

		engine := testEngine(failingBackend(), cache, &mocks.StubMonitor{IsOnline: false})

		result, err := engine.GetRunDetails(context.Background(), nil, 213972)
		if err != nil {
			t.Fatalf("expected cached fallback: %v", err)
		}

		if result.Source != SourceCache {
			t.Errorf("expected cache source, got %v", result.Source)
		}
		if result.CachedAt.IsZero() {
			t.Error("cached results must carry the cache timestamp")
		}
		if result.Detail.Header.RunNumber != 213972 {
			t.Errorf("unexpected detail: %+v", result.Detail.Header)
		}
	})

	t.Run("OfflineMissIsUnavailableOffline", func(t *testing.T) {
		engine := testEngine(failingBackend(), newMockCache(), &mocks.StubMonitor{IsOnline: false})

		_, err := engine.GetRunDetails(context.Background(), nil, 999)
		if !errors.Is(err, shared.ErrUnavailableOffline) {
			t.Errorf("expected ErrUnavailableOffline, got %v", err)
		}
	})

	t.Run("OnlineMissKeepsOriginalError", func(t *testing.T) {
		original := errors.New("backend exploded in a very specific way")
		backend := &mocks.MockBackend{
			GetRunFunc: func(ctx context.Context, n int) (*models.RunHeader, []models.BatchRow, error) {
				return nil, nil, original
			},
		}

		engine := testEngine(backend, newMockCache(), &mocks.StubMonitor{IsOnline: true})

		_, err := engine.GetRunDetails(context.Background(), nil, 100)
		if !errors.Is(err, original) {
			t.Errorf("expected the backend's own error, got %v", err)
		}
		if errors.Is(err, shared.ErrUnavailableOffline) {
			t.Error("online failures must not masquerade as offline ones")
		}
	})

	t.Run("OnlineHitStillServesCache", func(t *testing.T) {
		cache := newMockCache()
		cache.seed(t, 100, sampleDetail(100))

		engine := testEngine(failingBackend(), cache, &mocks.StubMonitor{IsOnline: true})

		result, err := engine.GetRunDetails(context.Background(), nil, 100)
		if err != nil {
			t.Fatalf("expected degraded cached result: %v", err)
		}
		if result.Source != SourceCache {
			t.Errorf("expected cache source, got %v", result.Source)
		}
	})

	t.Run("UnreadableCacheEntryFallsThrough", func(t *testing.T) {
		cache := newMockCache()
		cache.mu.Lock()
		cache.store[100] = []byte("{truncated")
		cache.mu.Unlock()

		engine := testEngine(failingBackend(), cache, &mocks.StubMonitor{IsOnline: false})

		_, err := engine.GetRunDetails(context.Background(), nil, 100)
		if !errors.Is(err, shared.ErrUnavailableOffline) {
			t.Errorf("expected ErrUnavailableOffline, got %v", err)
		}
	})

	t.Run("NilBackendIsServiceUnavailable", func(t *testing.T) {
		engine := testEngine(nil, newMockCache(), nil)

		_, err := engine.GetRunDetails(context.Background(), nil, 100)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

// TestOfflineShiftScenario walks the workflow the cache exists for: fetch
// while the network is up, lose it mid-shift, keep working from cache.
func TestOfflineShiftScenario(t *testing.T) {
	cache := newMockCache()
	monitor := &mocks.StubMonitor{IsOnline: true}

	backendUp := true
	backend := healthyBackend(0)
	getRun := backend.GetRunFunc
	backend.GetRunFunc = func(ctx context.Context, n int) (*models.RunHeader, []models.BatchRow, error) {
		if !backendUp {
			return nil, nil, fmt.Errorf("%w: no route to host", shared.ErrAPIRequest)
		}
		return getRun(ctx, n)
	}

	engine := testEngine(backend, cache, monitor)
	ctx := context.Background()

	// Morning: run 100 fetched live and cached.
	result, err := engine.GetRunDetails(ctx, nil, 100)
	if err != nil {
		t.Fatalf("live fetch failed: %v", err)
	}
	if result.Source != SourceLive {
		t.Fatalf("expected live source, got %v", result.Source)
	}
	cache.awaitWrite(t, 100)

	// Network drops.
	backendUp = false
	monitor.IsOnline = false

	// Run 100 keeps working, flagged as cached.
	result, err = engine.GetRunDetails(ctx, nil, 100)
	if err != nil {
		t.Fatalf("cached fetch failed: %v", err)
	}
	if result.Source != SourceCache || result.CachedAt.IsZero() {
		t.Errorf("expected flagged cached result, got %+v", result)
	}

	// A never-fetched run is distinctly unavailable, not a generic network error.
	_, err = engine.GetRunDetails(ctx, nil, 999)
	if !errors.Is(err, shared.ErrUnavailableOffline) {
		t.Errorf("expected ErrUnavailableOffline for run 999, got %v", err)
	}
}

func TestSourceString(t *testing.T) {
	if SourceLive.String() != "live" || SourceCache.String() != "cache" {
		t.Error("unexpected source labels")
	}
	if Source(42).String() != "unknown" {
		t.Error("unexpected label for out-of-range source")
	}
}
