// ABOUTME: Gateway orchestrator wiring store, directory, delivery, and HTTP server
// ABOUTME: Owns component lifecycle from startup through graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/2389/pairchat/internal/auth"
	"github.com/2389/pairchat/internal/config"
	"github.com/2389/pairchat/internal/conversation"
	"github.com/2389/pairchat/internal/delivery"
	"github.com/2389/pairchat/internal/directory"
	"github.com/2389/pairchat/internal/presence"
	"github.com/2389/pairchat/internal/session"
	"github.com/2389/pairchat/internal/store"
)

// shutdownTimeout bounds how long Run waits for in-flight requests on exit.
const shutdownTimeout = 10 * time.Second

// Gateway orchestrates the pairchat server components.
type Gateway struct {
	config     *config.Config
	store      store.Store
	directory  *directory.Directory
	verifier   *auth.JWTVerifier
	registry   *presence.Registry
	router     *delivery.Router
	reader     *conversation.Reader
	sessions   *session.Manager
	validate   *validator.Validate
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a gateway from config, opening the store and wiring every
// component. Close the returned gateway via Run's shutdown path.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	g := newWithStore(cfg, s, logger)
	return g, nil
}

// newWithStore wires a gateway over an already-open store.
// Split out so tests can inject a temp-dir store directly.
func newWithStore(cfg *config.Config, s store.Store, logger *slog.Logger) *Gateway {
	registry := presence.NewRegistry(logger)
	dir := directory.New(s, logger,
		directory.WithSearchExcludesSelf(cfg.SearchExcludesSelfOrDefault()))
	router := delivery.NewRouter(s, dir, registry, logger,
		delivery.WithAllowSelfMessages(cfg.Policy.AllowSelfMessages),
		delivery.WithPushTimeout(cfg.Delivery.PushTimeout))

	g := &Gateway{
		config:    cfg,
		store:     s,
		directory: dir,
		verifier:  auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		registry:  registry,
		router:    router,
		reader:    conversation.NewReader(s, logger),
		sessions:  session.NewManager(registry, logger),
		validate:  validator.New(),
		logger:    logger.With("component", "gateway"),
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

// Handler builds the HTTP routing table.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", g.handleHealth)

	// Account endpoints are the unauthenticated surface
	r.Post("/api/signup", g.handleSignup)
	r.Post("/api/login", g.handleLogin)

	// Everything else requires a valid token
	r.Group(func(r chi.Router) {
		r.Use(auth.HTTPAuthMiddleware(g.verifier))
		r.Post("/api/send", g.handleSend)
		r.Get("/api/history", g.handleHistory)
		r.Get("/api/search-user", g.handleSearchUser)
		r.Get("/ws", g.handleWebSocket)
	})

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails. Shutdown closes live channels first so connected clients
// see a clean disconnect, then drains HTTP, then closes the store.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	g.logger.Info("shutting down")

	g.registry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.httpServer.Shutdown(shutdownCtx); err != nil {
		g.logger.Error("http shutdown failed", "error", err)
	}

	if err := g.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
