// Package redis provides a Redis implementation of the store.CacheStore
// interface. Each record is stored as a JSON string under its own key and
// written with SETNX, so the first write for an identifier wins.
package redis
