// Package services defines the [LibrarySource] contract for remote music
// catalogs and implements it for Spotify.
//
// # LibrarySource Contract
//
// A library source exposes the user's saved collection per tier (artists,
// albums, tracks) plus batch by-identifier lookups. All entities are returned
// already normalized to the models package; source-specific response schemas
// never cross the package boundary. The reconciliation engine is written
// against the contract only, so a local-file-tag adapter or a second streaming
// catalog can slot in without touching the engine.
//
// [SourceOptions.RecentOnly] selects between the complete saved collection
// (transparent pagination until the service stops returning results) and a
// single bounded recent-window page suitable for low-latency incremental
// passes.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh via [oauth2.Config.Client]. Saved albums and tracks page by offset;
// followed artists page by cursor. Batch endpoints chunk identifier lists to
// the per-call ceilings Spotify enforces (50 artists/tracks, 20 albums),
// issued sequentially per chunk. Every request waits on a [rate.Limiter].
//
// # Enricher
//
// [Enricher] re-fetches freshly constructed entities by primary identifier
// and merges the results field-by-field onto the originals. Correlation runs
// through a batch-local identity index, never by array position, because
// batch responses are not guaranteed to preserve request order.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrEntityNotFound] : identifier resolved to nothing
package services
