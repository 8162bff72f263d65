// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for catalog browsing:
//  1. [BillboardView] : Scroll the now-playing billboard, loading further pages on demand
//  2. [SearchView] : Text search with results in the same list layout
//  3. [DetailView] : Full movie record with cast and a favorite toggle
//  4. [FavoritesView] : The connected account's favorite set
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Favorite state is read from the favorites cache, never fetched from a view;
// toggles go through the cache so every view observes the reloaded set.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, f, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
