// ABOUTME: Package documentation for the gateway orchestrator
// ABOUTME: Describes the HTTP surface and component wiring

// Package gateway wires the pairchat components into an HTTP server.
//
// # Surface
//
// The unauthenticated surface is /healthz plus the account endpoints
// POST /api/signup and POST /api/login. Everything else sits behind
// bearer-token auth:
//
//   - POST /api/send         queue a message for a receiver
//   - GET  /api/history      read a conversation transcript
//   - GET  /api/search-user  exact-match user lookup
//   - GET  /ws               WebSocket for live delivery
//
// WebSocket clients may pass the token as a ?token= query parameter,
// since browsers cannot set headers on WebSocket requests.
//
// # Delivery model
//
// Sending always goes through POST /api/send, never over the socket.
// The socket is a one-way feed of messages addressed to the connected
// user. A client that reconnects is expected to call /api/history with
// its last seen seq to recover anything it missed while offline.
//
// # Lifecycle
//
// New opens the SQLite store and wires directory, presence, delivery,
// and session components. Run blocks until the context is cancelled,
// then closes live channels, drains HTTP, and closes the store, in
// that order.
package gateway
