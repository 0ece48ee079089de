// ABOUTME: Live delivery channel for one connected client session
// ABOUTME: Buffered event pipe with closed-flag guarding against send-after-close

package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// channelBufferSize is the event buffer for each live channel.
const channelBufferSize = 64

// Event is the payload pushed to a live channel when a message is delivered.
// It mirrors what the recipient would later read from history.
type Event struct {
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel is a live delivery path to one connected client session.
// A user with several open sessions has one Channel per session.
type Channel struct {
	id   string
	user string

	mu     sync.RWMutex
	events chan *Event
	closed bool
}

// NewChannel creates a channel for the given user with a fresh handle.
func NewChannel(user string) *Channel {
	return &Channel{
		id:     uuid.New().String(),
		user:   user,
		events: make(chan *Event, channelBufferSize),
	}
}

// ID returns the unique channel handle.
func (c *Channel) ID() string { return c.id }

// User returns the identity this channel delivers to.
func (c *Channel) User() string { return c.user }

// Events returns the receive side of the channel.
// It is closed when the channel is closed.
func (c *Channel) Events() <-chan *Event { return c.events }

// Send attempts a non-blocking delivery.
// Returns false if the channel is closed or its buffer is full.
func (c *Channel) Send(event *Event) bool {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	// Hold the read lock while sending to prevent close during send
	select {
	case c.events <- event:
		c.mu.RUnlock()
		return true
	default:
		c.mu.RUnlock()
		return false
	}
}

// Close shuts the channel down. Safe to call more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Closed reports whether the channel has been closed.
func (c *Channel) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
