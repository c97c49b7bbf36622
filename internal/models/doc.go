// Package models defines the normalized entity model for the tunedex
// reconciliation core.
//
// The package contains two categories of types:
//
// 1. Catalog entities: source-agnostic music records built fresh on every fetch
//   - [Artist], [Album], [Track] : full entities embedding [MusicEntity]
//   - [SimplifiedArtist], [SimplifiedAlbum], [SimplifiedTrack] : minimal
//     {title, ids} projections used to express relationships without cycles
//   - [EntityIDs] : sparse external-identifier record keyed by [IDKind]
//   - [Sources] : provenance (service URL, local file path, free-form labels)
//
// 2. Persistent entities: database-backed rows with full lifecycle management
//   - [LocalFile] : indexed local audio file keyed for artist|album|title matching
//   - [SyncPass] : one reconciliation pass with counters and outcome
//
// Entity kinds form a closed set ([KindArtist], [KindAlbum], [KindTrack]);
// consumers switch exhaustively over [Kind] rather than inspecting types at
// runtime. All persistent entities implement the Model interface providing ID
// generation, timestamps, validation, and soft delete support. The
// Repository[T] interface defines standard CRUD operations for database access.
package models
