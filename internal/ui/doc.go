// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the web client's routes:
//  1. Home (/) : Trending movies and TV shows
//  2. Detail (/movie/:id, /tv/:id) : Title page with play and watchlist actions
//  3. Auth (/auth) : Login and signup forms
//  4. Onboarding (/onboarding) : Avatar and genre preferences
//  5. Watchlist (/watchlist) : The signed-in user's saved titles
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The session store and the views talk to the program through a [Bridge], which implements the store's navigator and the
// views' notifier. A redirect from the store is a hard navigation that resets every screen; notifications become toasts.
//
// Watchlist resolution streams progress through a channel, providing non-blocking status reporting while titles load.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
