// Package corpus reads the input collection for a pipeline run.
//
// A corpus file is either a JSON array or newline-delimited JSON of objects
// with title, text, source and optional query fields. The text becomes the
// work item payload and the query, when present, its auxiliary text.
package corpus
