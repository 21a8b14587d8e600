// Package api provides the read-only HTTP inspection API over the cache store.
//
// It lets operators check service health, look up a stored record by its
// identifier and compute the identifier of a payload without running the
// pipeline. When a signing secret is configured, every route except the
// health check requires a bearer JWT.
package api
