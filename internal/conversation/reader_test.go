// ABOUTME: Tests for the conversation reader over a real SQLite store
// ABOUTME: Covers pair symmetry, ordering, idempotent re-reads, and gap recovery

package conversation

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/pairchat/internal/store"
)

func setupReader(t *testing.T) (*Reader, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewReader(s, nil), s
}

func seed(t *testing.T, s *store.SQLiteStore, sender, receiver, body string) *store.Message {
	t.Helper()
	msg := &store.Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.AppendMessage(context.Background(), msg))
	return msg
}

func TestHistory_SymmetricForBothUsers(t *testing.T) {
	reader, s := setupReader(t)
	ctx := context.Background()

	seed(t, s, "alice", "bob", "hi")
	seed(t, s, "bob", "alice", "hello")

	asAlice, err := reader.History(ctx, "alice", "bob", HistoryParams{})
	require.NoError(t, err)
	asBob, err := reader.History(ctx, "bob", "alice", HistoryParams{})
	require.NoError(t, err)

	require.Len(t, asAlice, 2)
	require.Equal(t, len(asAlice), len(asBob))
	for i := range asAlice {
		assert.Equal(t, asAlice[i].ID, asBob[i].ID)
	}
}

func TestHistory_AscendingOrderStableAcrossReads(t *testing.T) {
	reader, s := setupReader(t)
	ctx := context.Background()

	for i := range 6 {
		seed(t, s, "alice", "bob", fmt.Sprintf("m%d", i))
	}

	first, err := reader.History(ctx, "alice", "bob", HistoryParams{})
	require.NoError(t, err)
	second, err := reader.History(ctx, "alice", "bob", HistoryParams{})
	require.NoError(t, err)

	require.Len(t, first, 6)
	for i := 1; i < len(first); i++ {
		assert.Greater(t, first[i].Seq, first[i-1].Seq)
	}
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "repeated reads must match")
	}
}

func TestHistory_GapRecoveryAfterSeq(t *testing.T) {
	reader, s := setupReader(t)
	ctx := context.Background()

	seen := seed(t, s, "alice", "bob", "before disconnect")
	seed(t, s, "alice", "bob", "while offline 1")
	seed(t, s, "alice", "bob", "while offline 2")

	// A reconnecting client resumes from the last seq it saw
	missed, err := reader.History(ctx, "bob", "alice", HistoryParams{AfterSeq: seen.Seq})
	require.NoError(t, err)
	require.Len(t, missed, 2)
	assert.Equal(t, "while offline 1", missed[0].Body)
	assert.Equal(t, "while offline 2", missed[1].Body)
}

func TestHistory_EmptyPairIsEmptyNotError(t *testing.T) {
	reader, _ := setupReader(t)

	messages, err := reader.History(context.Background(), "alice", "ghost", HistoryParams{})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHistory_ExcludesOtherPairs(t *testing.T) {
	reader, s := setupReader(t)
	ctx := context.Background()

	seed(t, s, "alice", "bob", "for bob")
	seed(t, s, "alice", "carol", "for carol")

	messages, err := reader.History(ctx, "alice", "bob", HistoryParams{})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "for bob", messages[0].Body)
}
