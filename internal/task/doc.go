// Package task runs work items through the cache-backed generation pipeline.
//
// The Runner handles a single item: it reuses a cached record when one exists,
// and otherwise renders the request, calls the executor once and writes the
// result back to the cache. The Coordinator handles a batch: it validates and
// de-duplicates items, answers cached ones directly, and feeds the rest through
// a bounded TaskQueue to a WorkerPool whose size caps the number of remote
// calls in flight.
package task
