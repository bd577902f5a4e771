// Package tasks orchestrates run data fetching with network-first, cache-fallback semantics.
//
// # Core Operations
//
// The [Engine] exposes two operations:
//
//  1. [Engine.GetRunDetails] : Fetch a run's full detail (header + all batch items)
//     - Always attempts the network first
//     - On success, hydrates every batch row (continuing past individual row
//       failures), writes the snapshot to the run cache fire-and-forget, and
//       returns a live-sourced result
//     - On failure, consults the connectivity monitor: offline means a cache
//       hit is returned flagged as cache-sourced and a miss is the distinct
//       "unavailable offline" error; online-but-erroring still tries the
//       cache, and a miss propagates the original error unchanged
//
//  2. [Engine.Prefetch] : Warm the cache for a list of upcoming runs
//     - Worker pool with rate limiting, partial failures reported per run
//
// The two fallback tiers exist because they mean different things to the
// operator: "you lost the network" versus "the network is fine but the server
// failed the request". Conflating them would make the offline banner lie.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. The
// [ProgressUpdate] struct contains phase, step counters, and messages.
// Updates use select with default to prevent blocking.
//
// # Caching
//
// Cache writes are a best-effort enhancement of a successful fetch: their
// failure is logged and never surfaces to the caller of the fetch.
package tasks
