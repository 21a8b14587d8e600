// Package store defines the cache persistence boundary of the pipeline.
// The CacheStore interface abstracts the durable key-to-record mapping so
// the task runner and coordinator stay independent of whether records live
// in files, PostgreSQL, or Redis.
package store
