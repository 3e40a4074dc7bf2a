// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a live playback-queue inspector: the entry list renders the current
// queue snapshot and refreshes as the background populator appends tracks.
// Progress updates flow through a channel from the SessionEngine, providing
// non-blocking status reporting while a batch resolves.
//
// Keyboard controls map onto the playback surface (next, previous, mode cycling,
// starring) with contextual help displayed via charmbracelet/bubbles/help.
package ui
