// Package ui implements the mixer as an interactive terminal interface using bubbletea's Elm architecture.
//
// The screen shows:
//  1. a master volume [slider] and one slider per configured track list, grouped
//  2. the playing [indicator]
//  3. a stack of [toasts] that hide themselves after the configured lifetime
//  4. a footer with the connection state and key help
//
// The [Model] is the widget surface the router writes to. Connection lifecycle callbacks run on the
// manager's goroutines, so they are queued on a channel and delivered to Update one at a time through
// the Msg union type. Every inbound frame therefore runs to completion before the next is read.
//
// Sliders separate dragging from committing: ←/→ moves the handle locally, enter sends one command,
// esc puts the handle back on the last value the server confirmed.
package ui
