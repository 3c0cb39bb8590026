// Package session holds the client's authentication state.
//
// [Store] is a small state machine: Loading until the first session lookup finishes, then
// Authenticated when both a provider session and a profile-backed identity are present, and
// Unauthenticated otherwise. Every identity mutation requires a session and is a silent no-op
// without one.
//
// Identity loads triggered by provider events are deferred to a [tasks.Queue] because the provider
// dispatches events while holding its session lock. Each auth transition bumps an epoch, and a load
// only commits when its epoch is still current.
//
// Watchlist writes send the full list and then adopt the locally computed list once the write
// succeeds. Concurrent toggles are last-write-wins.
package session
