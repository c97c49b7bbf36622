// Package web implements an HTMX-based web application mirroring the TUI functionality.
//
// # HTMX Web Application Implementation Plan
//
// # Architecture
//
// The web app replicates the five-view TUI workflow using server-side rendering
// with HTMX for dynamic updates. Each view corresponds to a template and handler:
//
//  1. Vault Browser: Server-rendered note table per tier with hx-get for detail
//  2. Note Detail: HTMX partial swap showing frontmatter, links and identifiers
//  3. Pass Confirm: Modal confirmation with hx-post trigger (full or incremental)
//  4. Pass Monitor: SSE (Server-Sent Events) streaming progress updates
//  5. Pass Result: Final status with created/updated/flagged breakdown
//
// Core Components
//
//   - HTTP Server: net/http server with html/template rendering
//   - Service Integration: Uses same vault.Repository and tasks.SyncEngine as TUI
//   - Session Management: Cookie-based sessions for OAuth state
//   - SSE Handler: Streams real-time progress during passes
//
// Routes
//
//	GET  /                      → Vault browser, artists tier (requires auth)
//	GET  /auth/spotify          → OAuth initiation
//	GET  /auth/spotify/callback → OAuth completion
//	GET  /tiers/{tier}          → HTMX partial: note list for one tier
//	GET  /notes/{path}          → HTMX partial: note detail
//	POST /sync                  → Start pass, return pass ID
//	GET  /sync/{id}/stream      → SSE progress stream
//	GET  /sync/{id}/result      → Final result view
//
// Templates
//
//   - base.html: Layout with tier navigation, auth status
//   - notes.html: Table with hx-get on rows
//   - detail.html: Partial template for note frontmatter
//   - progress.html: SSE consumer with phase indicator
//   - results.html: Pass counter breakdown with skipped tiers
//
// # State Management
//
// Unlike the TUI's in-memory state, the web app persists state in:
//   - Session cookies: Authentication tokens, OAuth state
//   - SyncPass records: Pass outcomes across requests
//   - In-memory channels: SSE connections for the active pass
//
// # Progress Streaming
//
// Pass progress uses Server-Sent Events:
//  1. POST /sync records a SyncPass, returns pass ID
//  2. Client opens SSE connection to /sync/{id}/stream
//  3. Handler launches goroutine running SyncEngine.FullSync or IncrementalSync
//  4. Progress channel updates stream as SSE events
//  5. On completion, send "done" event with redirect URL
//
// The pass guard still applies: a second POST /sync while a pass is running
// returns 409 Conflict.
//
// Authentication Flow
//
//  1. User visits /, redirected to /auth/spotify if not authenticated
//  2. OAuth dance stores tokens in session
//  3. Session middleware validates tokens on protected routes
//  4. Expired tokens trigger reauthorization flow
//
// Dependencies
//
//   - html/template: Server-side rendering
//   - net/http: HTTP server and SSE
//   - gorilla/sessions or similar: Cookie management
//
// Implementation Tasks
//
//  1. HTTP server setup with route registration
//  2. Template structure with HTMX integration
//  3. Session middleware for auth state
//  4. Tier list handler over vault.Repository.ReadTier
//  5. Note detail handler (HTMX partial)
//  6. Sync endpoint recording a SyncPass
//  7. SSE handler streaming progress updates
//  8. Result handler displaying SyncPass outcome
//  9. OAuth handlers wrapping the existing callback flow
//  10. Error handling and validation
//
// # Testing Strategy
//
// Use httptest:
//   - Mock services.LibrarySource for catalog data
//   - Mock tasks.SyncEngine for passes
//   - Validate HTMX headers and response structure
//   - Test SSE stream formatting
package web
