// Package postgres provides a PostgreSQL implementation of the store.CacheStore
// interface, along with connection setup and embedded schema migrations.
// It handles the details of query execution and data mapping between cache
// records and database rows.
package postgres
