// Package atomicfile replaces files so that readers observe either the old
// content or the new content, never a partial write.
//
// The temporary file is written and synced next to its destination and
// renamed over it with renameio. The parent directory is synced afterwards
// so the rename itself survives a crash.
package atomicfile
