// ABOUTME: Delivery router - the single entry point for sending a message
// ABOUTME: Persists first (the durability commit point), then fans out best-effort

package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/pairchat/internal/presence"
	"github.com/2389/pairchat/internal/store"
)

// defaultPushTimeout bounds how long a single channel push may wait on a
// full buffer before the channel is treated as dead.
const defaultPushTimeout = 2 * time.Second

// MessageAppender defines what the router needs from storage
type MessageAppender interface {
	AppendMessage(ctx context.Context, msg *store.Message) error
}

// Directory defines what the router needs from the user directory
type Directory interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// Presence defines what the router needs from the presence registry
type Presence interface {
	ChannelsFor(user string) []*presence.Channel
	Unregister(ch *presence.Channel)
}

// Router owns the send path: validate, resolve, persist, fan out.
// The store is the single source of truth; the live push is a best-effort
// latency optimization over data that is already durably visible.
type Router struct {
	store       MessageAppender
	directory   Directory
	presence    Presence
	logger      *slog.Logger
	allowSelf   bool
	pushTimeout time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithAllowSelfMessages permits a sender to address themselves.
func WithAllowSelfMessages(allow bool) Option {
	return func(r *Router) {
		r.allowSelf = allow
	}
}

// WithPushTimeout overrides the per-channel push bound.
func WithPushTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.pushTimeout = d
		}
	}
}

// NewRouter creates a delivery router. Pass nil logger for default.
func NewRouter(appender MessageAppender, dir Directory, pres Presence, logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		store:       appender,
		directory:   dir,
		presence:    pres,
		logger:      logger.With("component", "delivery"),
		pushTimeout: defaultPushTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SendRequest contains everything needed to send a message
type SendRequest struct {
	Sender   string
	Receiver string
	Body     string
}

// Send runs the full delivery sequence:
//
//  1. Validate sender, receiver, and body are non-empty.
//  2. Resolve the receiver against the user directory.
//  3. Persist via the store - the durability commit point.
//  4. Fan out to the receiver's live channels, best-effort.
//
// Send succeeds as soon as the message is durably stored, whether or not any
// channel was live (store-and-maybe-forward). A failed push never rolls back
// the store; the failing channel is unregistered so presence stays honest.
func (r *Router) Send(ctx context.Context, req *SendRequest) (*store.Message, error) {
	if req.Sender == "" {
		return nil, fmt.Errorf("%w: sender is required", ErrValidation)
	}
	if req.Receiver == "" {
		return nil, fmt.Errorf("%w: receiver is required", ErrValidation)
	}
	if req.Body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrValidation)
	}
	if !r.allowSelf && req.Sender == req.Receiver {
		return nil, ErrSelfMessage
	}

	exists, err := r.directory.Exists(ctx, req.Receiver)
	if err != nil {
		return nil, fmt.Errorf("resolving receiver: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRecipientNotFound, req.Receiver)
	}

	msg := &store.Message{
		ID:        uuid.New().String(),
		Sender:    req.Sender,
		Receiver:  req.Receiver,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("recording message: %w", err)
	}

	r.logger.Debug("message recorded",
		"seq", msg.Seq,
		"id", msg.ID,
		"sender", msg.Sender,
		"receiver", msg.Receiver)

	r.fanOut(msg)

	return msg, nil
}

// fanOut pushes the delivery event to every live channel of the receiver.
// Each push runs in its own goroutine so a slow or dead channel cannot stall
// the others; failures are logged, never surfaced to the sender.
func (r *Router) fanOut(msg *store.Message) {
	channels := r.presence.ChannelsFor(msg.Receiver)
	if len(channels) == 0 {
		return
	}

	event := &presence.Event{
		Sender:    msg.Sender,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}

	for _, ch := range channels {
		go r.push(ch, event, msg.ID)
	}
}

// push delivers one event to one channel, bounded by pushTimeout.
// On failure the channel is unregistered and closed - equivalent to a
// disconnect - so the registry's liveness invariant doesn't drift.
func (r *Router) push(ch *presence.Channel, event *presence.Event, messageID string) {
	if ch.Send(event) {
		return
	}

	// Buffer full or closed; retry briefly until the push deadline
	deadline := time.Now().Add(r.pushTimeout)
	for time.Now().Before(deadline) && !ch.Closed() {
		time.Sleep(50 * time.Millisecond)
		if ch.Send(event) {
			return
		}
	}

	r.logger.Warn("live delivery failed, dropping channel",
		"user", ch.User(),
		"channel_id", ch.ID(),
		"message_id", messageID)
	r.presence.Unregister(ch)
	ch.Close()
}
