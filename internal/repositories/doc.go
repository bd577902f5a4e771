// Package repositories implements SQLite persistence for the offline run cache.
//
// The cache is a bounded, durable store of the most recently fetched run
// snapshots, consulted only when a live fetch is impossible or fails.
//
// Key Implementations:
//   - [RunCacheRepository] : Bounded run snapshot storage with strict FIFO eviction
//
// Eviction order is by insertion, not access: a monotonic per-table sequence
// counter (incremented atomically by [NextSequence]) stamps every put, and the
// lowest-sequence rows are evicted first when the store would exceed capacity.
// Reading an entry never protects it from eviction. Re-putting an existing run
// number refreshes its payload, timestamp, and sequence without changing the
// total count.
package repositories
