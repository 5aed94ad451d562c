// Package sqlite provides a SQLite-based implementation of driven.Store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database connection backs
// every store interface:
//
//   - SpaceStore: Spaces and the files inside them
//   - EmbeddingStore: One record per indexed page
//   - ConversationStore: Question and answer turns
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Page embeddings are stored as packed little-endian float32 blobs.
//
// # Data Location
//
// By default, the database is stored at ~/.spaces/data/spaces.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
