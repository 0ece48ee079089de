// ABOUTME: Tests for the HTTP authentication middleware
// ABOUTME: Covers bearer header, query-parameter fallback, and rejection cases

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedHandler(t *testing.T, want string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromContext(r.Context())
		require.NotNil(t, id)
		assert.Equal(t, want, id.Username)
		w.WriteHeader(http.StatusOK)
	})
}

func TestHTTPAuthMiddleware_ValidBearerToken(t *testing.T) {
	v := NewJWTVerifier([]byte("secret"))
	token, err := v.Generate("alice", time.Hour)
	require.NoError(t, err)

	handler := HTTPAuthMiddleware(v)(authedHandler(t, "alice"))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPAuthMiddleware_QueryParamFallback(t *testing.T) {
	v := NewJWTVerifier([]byte("secret"))
	token, err := v.Generate("bob", time.Hour)
	require.NoError(t, err)

	handler := HTTPAuthMiddleware(v)(authedHandler(t, "bob"))

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPAuthMiddleware_MissingToken(t *testing.T) {
	v := NewJWTVerifier([]byte("secret"))
	handler := HTTPAuthMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPAuthMiddleware_InvalidToken(t *testing.T) {
	v := NewJWTVerifier([]byte("secret"))
	handler := HTTPAuthMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFromContext_AbsentReturnsNil(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromContext(req.Context()))
}
