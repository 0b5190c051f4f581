// Package sqlite provides a SQLite-backed vector index and policy text cache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two driven ports
// through a single database connection:
//
//   - VectorIndex: namespaced embeddings with brute-force cosine search
//   - PolicyCache: extracted policy text keyed by stored path
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.policyrag/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
