// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings of the remote generation service, the
// worker pool, the cache backend, and the inspection API, keeping those
// details separate from pipeline logic.
package config
