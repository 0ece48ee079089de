// Package store provides persistent storage for pairchat using SQLite.
//
// # Data Models
//
//   - Message: a single immutable message between two users. Seq is the
//     ordering key, assigned atomically at insert time.
//   - User: a registered account; the username is the identity everything
//     else keys on.
//
// # Ordering
//
// Conversations are derived, not stored: ListConversation selects messages
// whose canonical pair key (PairKey of sender and receiver) matches, ordered
// by seq. Because seq comes from SQLite's AUTOINCREMENT rowid, concurrent
// appends are serialized by the database and the resulting order is total and
// stable across repeated reads.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode and a busy timeout:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//	PRAGMA foreign_keys=ON;
//
// The connection pool is capped at one connection. SQLite permits a single
// writer, so concurrent appends queue on the pool instead of surfacing
// SQLITE_BUSY, and the seq assignment stays serialized.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrUserExists: username already taken
//   - ErrStorage: durable I/O failure; no partial write occurred, retry is safe
//
// All methods accept context.Context for cancellation support.
//
// Tests open stores against t.TempDir() paths; the single-connection pool
// also makes NewSQLiteStore(":memory:") behave as one shared database.
package store
