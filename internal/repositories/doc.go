// Package repositories implements SQLite persistence for the vault sync service.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [LocalFileRepository] : Scanned local audio files, keyed for fuzzy track matching
//   - [FileMatcher] : Adapter exposing local file lookups to the sync engine
//   - [SyncPassRepository] : Reconciliation pass history backing the sync log
//
// Sequence numbers provide stable, human-readable ordering (e.g., pass #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
