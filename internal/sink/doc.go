// Package sink persists the result collection of a pipeline run as
// newline-delimited JSON.
package sink
