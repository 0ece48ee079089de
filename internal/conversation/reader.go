// ABOUTME: Conversation reader - reconstructs ordered transcripts from the store
// ABOUTME: Used for initial history load and for gap recovery after reconnect

package conversation

import (
	"context"
	"log/slog"

	"github.com/2389/pairchat/internal/store"
)

// ConversationStore defines what the reader needs from storage
type ConversationStore interface {
	ListConversation(ctx context.Context, q store.ConversationQuery) ([]*store.Message, error)
}

// Reader reconstructs the transcript for an unordered user pair.
// Reads are idempotent and restartable, which makes a plain re-read the
// recovery mechanism for any lost or suspect live push.
type Reader struct {
	store  ConversationStore
	logger *slog.Logger
}

// NewReader creates a conversation reader. Pass nil logger for default.
func NewReader(cs ConversationStore, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		store:  cs,
		logger: logger.With("component", "conversation"),
	}
}

// HistoryParams selects a page of history.
type HistoryParams struct {
	AfterSeq int64 // resume after this ordering key; 0 for the full transcript
	Limit    int   // page size, store defaults apply when 0
}

// History returns the conversation between userA and userB in ascending
// order. The view is identical whichever of the two users asks for it.
func (r *Reader) History(ctx context.Context, userA, userB string, p HistoryParams) ([]*store.Message, error) {
	messages, err := r.store.ListConversation(ctx, store.ConversationQuery{
		UserA:    userA,
		UserB:    userB,
		AfterSeq: p.AfterSeq,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("history read",
		"user_a", userA,
		"user_b", userB,
		"after_seq", p.AfterSeq,
		"count", len(messages))
	return messages, nil
}
