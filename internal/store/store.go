// ABOUTME: Store interface and data types for pairchat persistence
// ABOUTME: Defines Message, User structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUserExists is returned when trying to create a user whose username is taken
var ErrUserExists = errors.New("user already exists")

// ErrStorage marks durable read/write failures. Operations that fail with
// ErrStorage performed no partial writes and are safe to retry blindly.
var ErrStorage = errors.New("storage failure")

// Message is a single message between two users. Immutable once persisted.
// Seq is the ordering key: assigned atomically by the store at insert time,
// totally ordered by real insertion order.
type Message struct {
	Seq       int64
	ID        string
	Sender    string
	Receiver  string
	Body      string
	CreatedAt time.Time
}

// User is a registered account. The username is the opaque identity the
// messaging core keys everything on; it never changes once created.
type User struct {
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// ConversationQuery selects a page of messages for an unordered user pair.
type ConversationQuery struct {
	UserA    string
	UserB    string
	AfterSeq int64 // only messages with seq > AfterSeq; 0 means from the start
	Limit    int   // 1-500, defaults to 100
}

// Store defines the interface for message and user persistence
type Store interface {
	// Messages
	AppendMessage(ctx context.Context, msg *Message) error
	ListConversation(ctx context.Context, q ConversationQuery) ([]*Message, error)

	// Users (backs the directory collaborator)
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, username string) (*User, error)
	UserExists(ctx context.Context, username string) (bool, error)

	// Close releases any resources held by the store
	Close() error
}

// PairKey returns the canonical conversation key for an unordered user pair.
// Uses | as delimiter since it's not a valid username character.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// storageErr wraps a driver error so callers can detect it with
// errors.Is(err, ErrStorage) while keeping the underlying detail.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
