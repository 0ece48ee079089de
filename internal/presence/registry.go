// ABOUTME: In-memory presence registry mapping users to their live channels
// ABOUTME: Pure process-lifetime state; everyone is offline after a restart

package presence

import (
	"log/slog"
	"sync"
)

// Registry maps a user identity to the set of channels currently live for it.
// All state is in memory and mutated only through Register/Unregister, so the
// registry never reports a channel that was not explicitly registered.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Channel // username -> channelID -> channel
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		channels: make(map[string]map[string]*Channel),
		logger:   logger.With("component", "presence"),
	}
}

// Register adds a channel to its user's live set.
// Idempotent if the channel is already present.
func (r *Registry) Register(ch *Channel) {
	r.mu.Lock()
	if _, ok := r.channels[ch.User()]; !ok {
		r.channels[ch.User()] = make(map[string]*Channel)
	}
	r.channels[ch.User()][ch.ID()] = ch
	r.mu.Unlock()

	r.logger.Debug("channel registered",
		"user", ch.User(),
		"channel_id", ch.ID())
}

// Unregister removes a channel from its user's live set.
// No-op if the channel is absent. The channel itself is not closed here;
// that is the session layer's job.
func (r *Registry) Unregister(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[ch.User()]
	if !ok {
		return
	}
	if _, exists := set[ch.ID()]; !exists {
		return
	}

	delete(set, ch.ID())
	if len(set) == 0 {
		delete(r.channels, ch.User())
	}

	r.logger.Debug("channel unregistered",
		"user", ch.User(),
		"channel_id", ch.ID())
}

// ChannelsFor returns a snapshot of the user's live channels.
// An unknown or fully disconnected user yields an empty slice, never an error.
func (r *Registry) ChannelsFor(user string) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[user]
	if !ok {
		return nil
	}

	channels := make([]*Channel, 0, len(set))
	for _, ch := range set {
		channels = append(channels, ch)
	}
	return channels
}

// Online reports whether the user has at least one live channel.
func (r *Registry) Online(user string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[user]) > 0
}

// Close unregisters and closes every channel. Used at shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for user, set := range r.channels {
		for id, ch := range set {
			ch.Close()
			delete(set, id)
		}
		delete(r.channels, user)
	}

	r.logger.Debug("presence registry closed")
}
