// Package sqlite provides the persistent VectorIndex backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Vectors are stored as little-endian
// float32 blobs; nearest-neighbour queries compute cosine distance in Go.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// A store whose schema version is newer than the newest known migration is
// treated as incompatible.
//
// # Recovery
//
// Open never leaves the caller without an index when the disk is usable. It
// tries, in order: the store at the configured directory; the same directory
// after deleting it; a fresh directory suffixed with the current Unix time.
//
// # Thread Safety
//
// One writer at a time, any number of concurrent readers, enforced with a
// sync.RWMutex on top of SQLite's WAL mode.
package sqlite
