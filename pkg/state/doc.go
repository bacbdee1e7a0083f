// Package state persists history snapshots under string keys.
//
// A Store loads and saves exactly one snapshot per key together with
// storage-owned Meta. Stores stamp a fresh SnapshotID and ETag on every save;
// a caller that passes the ETag it last observed gets ErrETagMismatch when the
// stored snapshot has moved on. Passing an empty ETag saves unconditionally.
//
// Implementations:
//
//	MemoryStore    tests and examples
//	FileStore      one JSON file per key, written to a temp file then renamed
//	PostgresStore  one JSONB row per key (pgx)
package state
