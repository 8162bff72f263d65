// Package repositories implements SQLite persistence for locally recorded
// data that does not live in the session store.
//
// Key Implementations:
//   - [HistoryRepository] : search history with recency-ordered lookups
//
// The session store (credentials, current user, pending handshake token) is
// owned by internal/session and deliberately not part of this package.
package repositories
