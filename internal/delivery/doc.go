// Package delivery owns the send path for pairchat messages.
//
// # Sequence
//
// Every submission runs the same sequence:
//
//  1. Validate sender, receiver, body (ErrValidation before any side effect)
//  2. Resolve the receiver against the user directory (ErrRecipientNotFound)
//  3. Append to the message store - the durability commit point
//  4. Fan out to the receiver's live channels, best-effort
//
// Persistence and live push are deliberately decoupled: the store is the
// single source of truth, and a crash between the two steps can at worst
// skip a push the client recovers via a history read. This avoids the
// classic dual-write problem where notify-then-store loses messages and
// store-then-notify-in-one-transaction couples durability to flaky sockets.
//
// # Push failure
//
// A push that cannot land within the configured timeout treats the channel
// as disconnected: it is unregistered from presence and closed. The send
// still succeeds - the message is already durable and will appear in the
// recipient's next history read.
package delivery
