// ABOUTME: Session lifecycle manager for live client connections
// ABOUTME: Join/Leave keep the presence registry consistent with actual channels

package session

import (
	"fmt"
	"log/slog"

	"github.com/2389/pairchat/internal/presence"
)

// Manager owns the per-session state machine: Disconnected -> Join ->
// Connected -> Leave -> Disconnected. Each session is one channel; a user
// may hold several concurrent sessions, each transitioning independently.
// Reconnection is just a fresh Join with a new channel handle - the client
// re-fetches history afterwards to cover anything sent while it was away.
type Manager struct {
	registry *presence.Registry
	logger   *slog.Logger
}

// NewManager creates a session manager over the given registry.
// Pass nil logger for default.
func NewManager(registry *presence.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		logger:   logger.With("component", "session"),
	}
}

// Join opens a new live channel for the user and registers it.
func (m *Manager) Join(user string) (*presence.Channel, error) {
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}

	ch := presence.NewChannel(user)
	m.registry.Register(ch)

	m.logger.Info("session joined",
		"user", user,
		"channel_id", ch.ID())
	return ch, nil
}

// Leave tears a session down: the channel is removed from presence and
// closed. Safe to call for channels that were already pruned (e.g. after a
// failed push unregistered them first).
func (m *Manager) Leave(ch *presence.Channel) {
	if ch == nil {
		return
	}

	m.registry.Unregister(ch)
	ch.Close()

	m.logger.Info("session left",
		"user", ch.User(),
		"channel_id", ch.ID())
}
