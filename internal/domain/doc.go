// Package domain contains the core entities of the generation pipeline:
// work items, their content-derived identifiers, and the cache records
// produced for them. It is independent of any storage or transport.
package domain
