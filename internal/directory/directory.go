// ABOUTME: User directory backed by the store's users table
// ABOUTME: Provides existence/display-name lookups plus account registration and login

package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/pairchat/internal/store"
)

// ErrBadCredentials is returned when a login attempt fails.
// Deliberately the same for unknown username and wrong password.
var ErrBadCredentials = errors.New("invalid username or password")

// UserStore defines what the directory needs from storage
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUser(ctx context.Context, username string) (*store.User, error)
	UserExists(ctx context.Context, username string) (bool, error)
}

// Directory resolves usernames to accounts. The messaging core consults it
// before committing a message so every persisted message references a real
// recipient.
type Directory struct {
	store       UserStore
	logger      *slog.Logger
	excludeSelf bool
}

// Option configures a Directory.
type Option func(*Directory)

// WithSearchExcludesSelf controls whether Search hides the requesting user
// from their own results.
func WithSearchExcludesSelf(exclude bool) Option {
	return func(d *Directory) {
		d.excludeSelf = exclude
	}
}

// New creates a directory over the given user store. Pass nil logger for default.
func New(userStore UserStore, logger *slog.Logger, opts ...Option) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Directory{
		store:       userStore,
		logger:      logger.With("component", "directory"),
		excludeSelf: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Exists reports whether the username is registered.
func (d *Directory) Exists(ctx context.Context, username string) (bool, error) {
	return d.store.UserExists(ctx, username)
}

// DisplayName returns the display name for a username.
// Returns store.ErrNotFound if the user does not exist.
func (d *Directory) DisplayName(ctx context.Context, username string) (string, error) {
	user, err := d.store.GetUser(ctx, username)
	if err != nil {
		return "", err
	}
	return user.DisplayName, nil
}

// Register creates a new account with a bcrypt-hashed password.
// Returns store.ErrUserExists if the username is taken.
func (d *Directory) Register(ctx context.Context, username, displayName, password string) (*store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := d.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	d.logger.Info("user registered", "username", username)
	return user, nil
}

// Authenticate verifies a username/password pair and returns the account.
// Returns ErrBadCredentials on any mismatch.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := d.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	return user, nil
}

// Search looks up a user by exact username on behalf of a requester.
// When the exclude-self policy is on, a requester searching for themselves
// gets store.ErrNotFound, matching the "no results" behavior of the UI.
func (d *Directory) Search(ctx context.Context, requester, username string) (*store.User, error) {
	user, err := d.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if d.excludeSelf && user.Username == requester {
		return nil, store.ErrNotFound
	}
	return user, nil
}
