package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pote-app/pote-backend/internal/auth"
	"github.com/pote-app/pote-backend/internal/handler"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/middleware"
	"github.com/pote-app/pote-backend/internal/repository"
)

const testJWTSecret = "pote-test-secret"

func TestRecovery_OutermostCatchesHandlerPanic(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	// Same composition as the server: Recovery wraps the whole chain.
	chain := middleware.Recovery(middleware.Tracing(middleware.Logging(inner)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/balance", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

func TestAuth_TagsContextLoggerWithUserID(t *testing.T) {
	userID := uuid.New()
	token, err := auth.GenerateToken(userID, "lea@pote.app", testJWTSecret, time.Hour)
	require.NoError(t, err)

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+userID.String()+"/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(logging.WithLogger(req.Context(), base))

	rec := httptest.NewRecorder()
	middleware.Auth(testJWTSecret)(inner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), "user_id="+userID.String())
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/balance", nil)
	rec := httptest.NewRecorder()
	middleware.Auth(testJWTSecret)(inner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type memoryIdempotencyStore struct {
	entries map[string]*repository.IdempotencyCacheEntry
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error) {
	return s.entries[key+userID.String()], nil
}

func (s *memoryIdempotencyStore) Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error {
	s.entries[entry.Key+entry.UserID.String()] = entry
	return nil
}

func TestIdempotency_RetriedPostReplaysInsteadOfReentering(t *testing.T) {
	store := &memoryIdempotencyStore{entries: map[string]*repository.IdempotencyCacheEntry{}}
	userID := uuid.New()

	var calls int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"new_balance":83500},"error":null}`))
	})
	wrapped := middleware.Idempotency(store)(inner)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+userID.String()+"/messages", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "msg-retry-1")
		req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	first := send(`{"text":"j'ai claqué 15 balles au McDo"}`)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	// A network retry of the same request must not run the handler again.
	second := send(`{"text":"j'ai claqué 15 balles au McDo"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	// Reusing the key with a different body is a conflict, not a replay.
	conflict := send(`{"text":"autre chose"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)
}
