// Package tasks orchestrates reconciliation passes between the remote music
// catalog and the vault, with real-time progress reporting.
//
// # Passes
//
// [SyncEngine] runs two kinds of pass:
//
//  1. [SyncEngine.FullSync] : complete reconciliation
//     - Ensures the vault tier folders exist
//     - Freshens existing notes (re-enrichment plus link healing)
//     - Fetches the complete saved collection tier by tier
//     - Upserts a note per entity, creating where unrepresented
//     - Recomputes in_library across every note of each fetched tier
//
//  2. [SyncEngine.IncrementalSync] : recent-window catch-up
//     - Fetches only the most recently saved page per tier
//     - Ingests not-yet-represented entities the same way
//     - Never freshens and never revokes library membership
//
// Tiers run in dependency order with a hard barrier between them: artists,
// then albums, then tracks, because album and track notes embed links into
// the tiers before them. Within a tier, note writes fan out across a bounded
// worker pool; the pass-scoped identity index is built fresh from disk and
// only grows through the single-threaded planning step.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default
// to prevent blocking.
//
// # Exclusivity
//
// [PassGuard] holds a file lock for the duration of a pass and debounces
// incremental passes, so a burst of triggers collapses into one pass.
//
// # Dependencies
//
//   - [services.LibrarySource] : the remote catalog client
//   - [services.Enricher] : batch metadata re-fetch, optional
//   - [FileMatcher] : local audio file lookup, optional
//   - [PassHistory] : pass outcome persistence, optional
package tasks
