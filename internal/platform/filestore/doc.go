// Package filestore implements store.CacheStore on the local filesystem,
// one file per identifier. A record for id X lives at <dir>/X.jsonl as a
// single JSON line; the file's presence is the existence signal. Files are
// written to a temporary name in the same directory and renamed into place,
// so a crash never exposes a partial record.
package filestore
