package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheList lists cached runs, newest first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}

	entries, err := cache.ListAll()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlainln("Cache is empty")
		return nil
	}

	r.writePlainln("Cached runs (newest first):")
	for _, entry := range entries {
		r.writePlain("  run %-8d cached %s\n", entry.RunNumber, entry.CachedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// CacheStats shows cache statistics.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}

	stats, err := cache.Stats()
	if err != nil {
		return err
	}

	r.writePlainln("Cache: %d of %d runs, ~%d bytes", stats.Count, stats.Capacity, stats.ApproxSizeBytes)
	if stats.OldestCachedAt != nil {
		r.writePlainln("  Oldest: %s", stats.OldestCachedAt.Format("2006-01-02 15:04:05"))
	}
	if stats.NewestCachedAt != nil {
		r.writePlainln("  Newest: %s", stats.NewestCachedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// CacheClear empties the cache.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}

	if err := cache.Clear(); err != nil {
		return err
	}

	r.logger.Info("cache cleared")
	r.writePlainln("✓ Cache cleared")

	return nil
}
