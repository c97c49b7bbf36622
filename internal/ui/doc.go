// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow over the vault:
//  1. [BrowseView] : Page through artist, album and track notes by tier
//  2. [DetailView] : Inspect one note's frontmatter (identifiers, links, library flag)
//  3. [ConfirmView] : Confirm a full or incremental sync pass
//  4. [SyncView] : Monitor real-time pass progress
//  5. [ResultView] : Display pass counters and skipped categories
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the SyncEngine, providing non-blocking status reporting during passes.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
