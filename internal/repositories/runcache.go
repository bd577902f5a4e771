package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/deachawatss/pickbench/internal/models"
	"github.com/deachawatss/pickbench/internal/shared"
)

// DefaultCapacity is the number of run snapshots kept when no capacity is configured.
const DefaultCapacity = 5

// CacheEntry is a diagnostic listing row: which run is cached and when.
type CacheEntry struct {
	RunNumber int       `json:"runNumber"`
	CachedAt  time.Time `json:"cachedAt"`
}

// CacheStats summarizes the cache contents for diagnostics.
type CacheStats struct {
	Count           int        `json:"count"`
	Capacity        int        `json:"capacity"`
	OldestCachedAt  *time.Time `json:"oldestCachedAt,omitempty"`
	NewestCachedAt  *time.Time `json:"newestCachedAt,omitempty"`
	ApproxSizeBytes int64      `json:"approxSizeBytes"`
}

// RunCacheRepository stores the last N fully hydrated run snapshots with FIFO eviction.
//
// Put never leaves the table above capacity: the upsert and the eviction of
// overflow rows happen in one transaction.
type RunCacheRepository struct {
	db       *sql.DB
	capacity int
}

// NewRunCacheRepository creates a RunCacheRepository with the given capacity.
// A non-positive capacity falls back to [DefaultCapacity].
func NewRunCacheRepository(db *sql.DB, capacity int) *RunCacheRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RunCacheRepository{db: db, capacity: capacity}
}

// Capacity returns the configured maximum number of cached runs.
func (r *RunCacheRepository) Capacity() int {
	return r.capacity
}

// Put inserts or refreshes the snapshot for runNumber, evicting the
// oldest-inserted entries if the table would otherwise exceed capacity.
//
// An existing run number keeps the row's id but takes a fresh sequence and
// timestamp, making it the newest entry for eviction purposes without
// changing the count.
func (r *RunCacheRepository) Put(runNumber int, payload []byte) error {
	sequence, err := NextSequence(r.db, "run_cache")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	cached := models.NewCachedRun(sequence, runNumber, payload)
	cached.SetID(shared.GenerateID())

	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO run_cache (id, seq, run_number, payload, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_number) DO UPDATE SET
			seq = excluded.seq,
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`

	_, err = tx.Exec(query,
		cached.ID(),
		cached.Seq(),
		cached.RunNumber(),
		cached.Payload(),
		cached.CachedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cached run: %w", err)
	}

	evict := `
		DELETE FROM run_cache
		WHERE run_number NOT IN (
			SELECT run_number FROM run_cache
			ORDER BY seq DESC
			LIMIT ?
		)
	`

	if _, err := tx.Exec(evict, r.capacity); err != nil {
		return fmt.Errorf("failed to evict overflow entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache write: %w", err)
	}

	return nil
}

// Get retrieves the cached snapshot for runNumber, or [shared.ErrCacheMiss].
//
// Lookups never touch the sequence column; reading a run does not protect it
// from eviction.
func (r *RunCacheRepository) Get(runNumber int) (*models.CachedRun, error) {
	query := `
		SELECT id, seq, run_number, payload, cached_at
		FROM run_cache
		WHERE run_number = ?
	`

	return r.scanOne(r.db.QueryRow(query, runNumber), runNumber)
}

// ListAll returns every cached entry ordered newest-first.
func (r *RunCacheRepository) ListAll() ([]CacheEntry, error) {
	query := `
		SELECT run_number, cached_at
		FROM run_cache
		ORDER BY seq DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entries: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var entry CacheEntry
		if err := rows.Scan(&entry.RunNumber, &entry.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear empties the store.
func (r *RunCacheRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM run_cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Stats summarizes the cache for diagnostics.
func (r *RunCacheRepository) Stats() (*CacheStats, error) {
	stats := &CacheStats{Capacity: r.capacity}

	query := `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0)
		FROM run_cache
	`

	if err := r.db.QueryRow(query).Scan(&stats.Count, &stats.ApproxSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to query cache stats: %w", err)
	}

	if stats.Count == 0 {
		return stats, nil
	}

	// Selecting the bare column keeps sqlite's declared type intact so the
	// driver yields time.Time; an aggregate over it would come back as text.
	var oldest, newest time.Time
	bounds := "SELECT cached_at FROM run_cache ORDER BY cached_at %s LIMIT 1"
	if err := r.db.QueryRow(fmt.Sprintf(bounds, "ASC")).Scan(&oldest); err != nil {
		return nil, fmt.Errorf("failed to query cache bounds: %w", err)
	}
	if err := r.db.QueryRow(fmt.Sprintf(bounds, "DESC")).Scan(&newest); err != nil {
		return nil, fmt.Errorf("failed to query cache bounds: %w", err)
	}

	stats.OldestCachedAt = &oldest
	stats.NewestCachedAt = &newest

	return stats, nil
}

// scanOne scans a single row into a [models.CachedRun]
func (r *RunCacheRepository) scanOne(row *sql.Row, runNumber int) (*models.CachedRun, error) {
	var (
		id       string
		seq      int
		payload  []byte
		cachedAt time.Time
	)

	err := row.Scan(&id, &seq, &runNumber, &payload, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", runNumber, shared.ErrCacheMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached run: %w", err)
	}

	cached := models.NewCachedRun(seq, runNumber, payload)
	cached.SetID(id)
	cached.SetCachedAt(cachedAt)

	return cached, nil
}
