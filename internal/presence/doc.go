// Package presence tracks which users are currently reachable and through
// which live channels.
//
// # Model
//
// Presence is a set, not a slot: a user connected from several devices has
// one Channel per session, and the Registry keeps the whole set. A channel
// is added on join and removed on disconnect; when the set empties the user
// is offline. Nothing here is persisted — after a process restart everyone
// is offline until they rejoin.
//
// # Concurrency
//
// The Registry is the only mutable shared structure in the messaging core.
// All access goes through an RWMutex; ChannelsFor returns a snapshot so the
// delivery path never holds the registry lock while pushing.
//
// Channel.Send is non-blocking by construction: a full buffer or a closed
// channel yields false immediately, so one slow session can never stall
// delivery to another.
package presence
