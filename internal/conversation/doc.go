// Package conversation reconstructs ordered transcripts for a user pair.
//
// The reader is a thin, read-only layer over the message store. Because the
// store is the source of truth and reads are idempotent, clients use the
// same History call for the initial hydrate at join time and for resyncing
// after a suspected gap - there is no separate recovery protocol.
package conversation
