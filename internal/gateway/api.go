// ABOUTME: REST API handlers for accounts, sending, history, and user search
// ABOUTME: Maps the delivery/store error taxonomy onto HTTP status codes

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/2389/pairchat/internal/auth"
	"github.com/2389/pairchat/internal/conversation"
	"github.com/2389/pairchat/internal/delivery"
	"github.com/2389/pairchat/internal/directory"
	"github.com/2389/pairchat/internal/store"
)

// SignupRequest is the JSON request body for POST /api/signup.
type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=64"`
	DisplayName string `json:"display_name" validate:"required,max=128"`
	Password    string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON request body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the JSON response for POST /api/login.
type LoginResponse struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// SendMessageRequest is the JSON request body for POST /api/send.
// The sender is always the authenticated identity, never a request field.
type SendMessageRequest struct {
	Receiver string `json:"receiver" validate:"required"`
	Body     string `json:"body" validate:"required"`
}

// SendMessageResponse is the JSON response for POST /api/send.
type SendMessageResponse struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse is one entry in a history response.
type MessageResponse struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// HistoryResponse is the JSON response for GET /api/history.
type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// SearchUserResponse is the JSON response for GET /api/search-user.
type SearchUserResponse struct {
	Exists      bool   `json:"exists"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !g.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := g.directory.Register(r.Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		g.serverError(w, r, "signup failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"username":     user.Username,
		"display_name": user.DisplayName,
	})
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !g.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := g.directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		g.serverError(w, r, "login failed", err)
		return
	}

	token, err := g.verifier.Generate(user.Username, g.config.Auth.TokenTTL)
	if err != nil {
		g.serverError(w, r, "token generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:       token,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

func (g *Gateway) handleSend(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req SendMessageRequest
	if !g.decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := g.router.Send(r.Context(), &delivery.SendRequest{
		Sender:   id.Username,
		Receiver: req.Receiver,
		Body:     req.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrValidation), errors.Is(err, delivery.ErrSelfMessage):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, delivery.ErrRecipientNotFound):
			writeError(w, http.StatusNotFound, "receiver not found")
		default:
			// Storage failures performed no partial write; clients may retry
			g.serverError(w, r, "send failed", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, SendMessageResponse{
		ID:        msg.ID,
		Seq:       msg.Seq,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (g *Gateway) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	peer := r.URL.Query().Get("with")
	if peer == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'with' is required")
		return
	}

	params := conversation.HistoryParams{}
	if v := r.URL.Query().Get("after_seq"); v != "" {
		afterSeq, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after_seq must be an integer")
			return
		}
		params.AfterSeq = afterSeq
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		params.Limit = limit
	}

	messages, err := g.reader.History(r.Context(), id.Username, peer, params)
	if err != nil {
		g.serverError(w, r, "history read failed", err)
		return
	}

	resp := HistoryResponse{Messages: make([]MessageResponse, 0, len(messages))}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, MessageResponse{
			ID:        msg.ID,
			Seq:       msg.Seq,
			Sender:    msg.Sender,
			Receiver:  msg.Receiver,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handleSearchUser(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'username' is required")
		return
	}

	user, err := g.directory.Search(r.Context(), id.Username, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, SearchUserResponse{Exists: false})
			return
		}
		g.serverError(w, r, "search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, SearchUserResponse{
		Exists:      true,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

// decodeAndValidate parses a JSON body into dst and runs struct validation.
// Writes the 400 response itself and returns false on failure.
func (g *Gateway) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := g.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field: "+verrs[0].Field())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func (g *Gateway) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	g.logger.Error(msg, "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
