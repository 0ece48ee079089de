// ABOUTME: Tests for the delivery router's persist-then-push sequence
// ABOUTME: Covers validation, recipient lookup, offline store-only path, fan-out, and failure handling

package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/pairchat/internal/presence"
	"github.com/2389/pairchat/internal/store"
)

// memAppender records messages in memory and assigns sequential keys.
type memAppender struct {
	mu       sync.Mutex
	messages []*store.Message
	failWith error
}

func (m *memAppender) AppendMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	msg.Seq = int64(len(m.messages) + 1)
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memAppender) all() []*store.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*store.Message(nil), m.messages...)
}

// fakeDirectory knows a fixed set of usernames.
type fakeDirectory struct {
	users map[string]bool
}

func (f *fakeDirectory) Exists(_ context.Context, username string) (bool, error) {
	return f.users[username], nil
}

func setupRouter(t *testing.T, opts ...Option) (*Router, *memAppender, *presence.Registry) {
	t.Helper()
	appender := &memAppender{}
	dir := &fakeDirectory{users: map[string]bool{"alice": true, "bob": true}}
	registry := presence.NewRegistry(nil)
	t.Cleanup(registry.Close)
	return NewRouter(appender, dir, registry, nil, opts...), appender, registry
}

func TestSend_PersistsAndReturnsMessage(t *testing.T) {
	router, appender, _ := setupRouter(t)

	msg, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "hi"})
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, int64(1), msg.Seq)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "bob", msg.Receiver)
	assert.Equal(t, "hi", msg.Body)
	assert.False(t, msg.CreatedAt.IsZero())

	require.Len(t, appender.all(), 1)
}

func TestSend_OfflineRecipientStoreOnly(t *testing.T) {
	router, appender, registry := setupRouter(t)

	assert.False(t, registry.Online("bob"))

	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "hello"})
	require.NoError(t, err, "send must succeed with zero live channels")
	assert.Len(t, appender.all(), 1)
}

func TestSend_LiveChannelReceivesPush(t *testing.T) {
	router, _, registry := setupRouter(t)

	ch := presence.NewChannel("bob")
	registry.Register(ch)

	msg, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "hi"})
	require.NoError(t, err)

	select {
	case event := <-ch.Events():
		assert.Equal(t, "alice", event.Sender)
		assert.Equal(t, "hi", event.Body)
		assert.True(t, event.CreatedAt.Equal(msg.CreatedAt), "push timestamp must match the stored one")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live push")
	}
}

func TestSend_MultiDeviceAllChannelsReceive(t *testing.T) {
	router, _, registry := setupRouter(t)

	phone := presence.NewChannel("bob")
	laptop := presence.NewChannel("bob")
	registry.Register(phone)
	registry.Register(laptop)

	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "ping"})
	require.NoError(t, err)

	for i, ch := range []*presence.Channel{phone, laptop} {
		select {
		case event := <-ch.Events():
			assert.Equal(t, "ping", event.Body, "channel %d got wrong event", i)
		case <-time.After(time.Second):
			t.Fatalf("channel %d timed out", i)
		}
	}
}

func TestSend_SenderChannelsDoNotReceive(t *testing.T) {
	router, _, registry := setupRouter(t)

	aliceCh := presence.NewChannel("alice")
	registry.Register(aliceCh)

	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "hi"})
	require.NoError(t, err)

	select {
	case <-aliceCh.Events():
		t.Fatal("sender's own channel must not receive the delivery event")
	case <-time.After(100 * time.Millisecond):
		// Expected: nothing delivered to the sender
	}
}

func TestSend_ValidationRejectsEmptyFields(t *testing.T) {
	router, appender, _ := setupRouter(t)
	ctx := context.Background()

	cases := []SendRequest{
		{Sender: "", Receiver: "bob", Body: "hi"},
		{Sender: "alice", Receiver: "", Body: "hi"},
		{Sender: "alice", Receiver: "bob", Body: ""},
	}
	for _, req := range cases {
		_, err := router.Send(ctx, &req)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Empty(t, appender.all(), "nothing may be persisted on validation failure")
}

func TestSend_UnknownRecipientRejectedBeforePersist(t *testing.T) {
	router, appender, _ := setupRouter(t)

	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "ghost", Body: "hi"})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.Empty(t, appender.all())
}

func TestSend_SelfMessagePolicy(t *testing.T) {
	router, _, _ := setupRouter(t)
	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "alice", Body: "memo"})
	assert.ErrorIs(t, err, ErrSelfMessage)

	permissive, appender, _ := setupRouter(t, WithAllowSelfMessages(true))
	msg, err := permissive.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "alice", Body: "memo"})
	require.NoError(t, err)
	assert.Equal(t, "memo", msg.Body)
	assert.Len(t, appender.all(), 1)
}

func TestSend_StorageFailurePropagates(t *testing.T) {
	appender := &memAppender{failWith: store.ErrStorage}
	dir := &fakeDirectory{users: map[string]bool{"alice": true, "bob": true}}
	registry := presence.NewRegistry(nil)
	defer registry.Close()

	ch := presence.NewChannel("bob")
	registry.Register(ch)

	router := NewRouter(appender, dir, registry, nil)
	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrStorage))

	// No push may happen when the commit point failed
	select {
	case <-ch.Events():
		t.Fatal("no delivery event may be pushed after a storage failure")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSend_DeadChannelIsUnregistered(t *testing.T) {
	router, _, registry := setupRouter(t, WithPushTimeout(100*time.Millisecond))

	dead := presence.NewChannel("bob")
	registry.Register(dead)

	// Fill the buffer so pushes can never land, and never read from it
	for dead.Send(&presence.Event{Sender: "x", Body: "fill", CreatedAt: time.Now()}) {
	}

	_, err := router.Send(context.Background(), &SendRequest{Sender: "alice", Receiver: "bob", Body: "hi"})
	require.NoError(t, err, "push failure must not fail the send")

	// The router treats the stuck channel as disconnected
	require.Eventually(t, func() bool {
		return len(registry.ChannelsFor("bob")) == 0
	}, 2*time.Second, 20*time.Millisecond, "dead channel should be pruned from presence")
	assert.True(t, dead.Closed())
}

func TestSend_ConcurrentSendsAllPersisted(t *testing.T) {
	router, appender, _ := setupRouter(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		body := fmt.Sprintf("concurrent-%d", i)
		wg.Go(func() {
			_, err := router.Send(ctx, &SendRequest{Sender: "alice", Receiver: "bob", Body: body})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	messages := appender.all()
	require.Len(t, messages, n)

	bodies := make(map[string]bool, n)
	for _, msg := range messages {
		bodies[msg.Body] = true
	}
	assert.Len(t, bodies, n, "no lost or duplicated writes")
}
