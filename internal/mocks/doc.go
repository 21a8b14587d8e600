// Package mocks provides in-memory and scriptable implementations of the
// cache store and executor interfaces for use in tests.
//
// The mocks track calls under a mutex so that concurrent pipeline tests can
// assert on call counts and peak concurrency.
package mocks
