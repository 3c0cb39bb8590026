// Package tasks runs background work for the session store, the CLI and the TUI.
//
// # Deferred Execution
//
// [Queue] is a single goroutine that runs [Task] values in submission order. [Queue.Defer] never
// blocks, so an auth provider callback that holds the provider's session lock can hand work to the
// queue and return. The deferred task then calls back into the provider after the lock is released.
//
// [Queue.Settle] waits until everything deferred before the call has run. Tests and the CLI use it
// to observe the state a provider event leads to.
//
// # Watchlist Operations
//
// Watchlist entries are bare numeric ids. [ResolveWatchlist] looks them up concurrently with a
// bounded errgroup, trying the movie catalog before the TV catalog, and keeps the input order.
// [ExportWatchlistFile] renders the resolved list through the formatter package.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Home Screen
//
// [LoadHome] fetches the trending movie and show rows in parallel.
package tasks
