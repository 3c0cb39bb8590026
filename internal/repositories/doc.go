// Package repositories implements SQLite persistence for the little state cinex keeps locally.
//
// Key Implementations:
//   - [SessionRepository] : the auth provider's session, a single row that survives restarts
//   - [WatchHistoryRepository] : titles the user opened in the player, newest first
//
// Everything else (profiles, watchlists) lives in the remote backend.
package repositories
