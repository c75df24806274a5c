// Package ui implements a live migration dashboard using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [DashboardView] : overall progress bar and a filterable list of catalog components
//  2. [DetailView] : one component's phase, tasks and issue log
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern. Snapshots pushed by the
// server arrive through a channel fed by [Source.Watch] and are applied in version order, so a late frame
// never replaces a newer one. When the stream drops, r reconnects.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
