// ABOUTME: Message persistence operations for the SQLite store
// ABOUTME: Append assigns the ordering key; conversation queries page by seq

package store

import (
	"context"
	"fmt"
	"time"
)

// AppendMessage durably records a message and fills in msg.Seq with the
// ordering key SQLite assigned. The insert is atomic: either the whole row is
// visible afterwards or nothing is.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, pair_key, sender, receiver, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		msg.ID,
		PairKey(msg.Sender, msg.Receiver),
		msg.Sender,
		msg.Receiver,
		msg.Body,
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storageErr("inserting message", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return storageErr("reading message seq", err)
	}
	msg.Seq = seq

	s.logger.Debug("message appended",
		"seq", seq,
		"id", msg.ID,
		"sender", msg.Sender,
		"receiver", msg.Receiver,
	)
	return nil
}

// ListConversation returns messages for the unordered pair (UserA, UserB),
// ordered by seq ascending. The same query with the same AfterSeq always
// returns the same prefix, so reads are restartable.
func (s *SQLiteStore) ListConversation(ctx context.Context, q ConversationQuery) ([]*Message, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT seq, id, sender, receiver, body, created_at
		FROM messages
		WHERE pair_key = ? AND seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, PairKey(q.UserA, q.UserB), q.AfterSeq, limit)
	if err != nil {
		return nil, storageErr("querying conversation", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		var createdAtStr string

		if err := rows.Scan(
			&msg.Seq,
			&msg.ID,
			&msg.Sender,
			&msg.Receiver,
			&msg.Body,
			&createdAtStr,
		); err != nil {
			return nil, storageErr("scanning message", err)
		}

		msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating conversation rows", err)
	}

	return messages, nil
}
