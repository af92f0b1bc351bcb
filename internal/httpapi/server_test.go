package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/pkg/config"
	"telegram-navigator/internal/storage"
)

func newServer(t *testing.T, store Store) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.Default(), store, logger).Handler()
}

func seed(t *testing.T, provider *storage.Provider, scope domain.Scope) {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	session := provider.For(scope)
	require.NoError(t, session.Archive(ctx, []domain.Entry{
		{State: "home", Root: true, Messages: []domain.Message{{ID: 1, Text: "home", TS: ts}}},
		{State: "item", Messages: []domain.Message{{ID: 2, Text: "item", TS: ts}}},
	}))
	id := 2
	require.NoError(t, session.Mark(ctx, &id))
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestServer(t *testing.T) {
	provider := storage.NewProvider(storage.NewMemory(0))
	seed(t, provider, domain.Scope{Chat: 42})
	seed(t, provider, domain.Scope{Chat: 42, Inline: "abc"})
	handler := newServer(t, provider)

	t.Run("Health Check", func(t *testing.T) {
		rr := get(t, handler, "/health")
		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "ok", resp["status"])
	})

	t.Run("список областей", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes")
		require.Equal(t, http.StatusOK, rr.Code)
		var resp map[string][]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, []string{"42", "42:abc"}, resp["keys"])
	})

	t.Run("история области", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes/42/history")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var resp historyResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "42", resp.Key)
		assert.Equal(t, 2, resp.Size)
		require.NotNil(t, resp.Last)
		assert.Equal(t, 2, *resp.Last)
		assert.Contains(t, string(resp.Namespace), `"history"`)
	})

	t.Run("история inline-области", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes/42/history?inline=abc")
		require.Equal(t, http.StatusOK, rr.Code)
		var resp historyResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "42:abc", resp.Key)
	})

	t.Run("неизвестная область", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes/7/history")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("неверный идентификатор чата", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes/abc/history")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("маркер", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes/42/last")
		require.Equal(t, http.StatusOK, rr.Code)
		var resp lastResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.NotNil(t, resp.Last)
		assert.Equal(t, 2, *resp.Last)
	})

	t.Run("маркер пустой области", func(t *testing.T) {
		rr := get(t, handler, "/api/v1/scopes/7/last")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"key":"7","last":null}`, rr.Body.String())
	})
}

func TestServer_CorruptedHistory(t *testing.T) {
	backend := storage.NewMemory(0)
	ctx := context.Background()
	require.NoError(t, backend.Save(ctx, "5", []byte(`{"state":null,"data":{"__nav__":{"history":[{"messages":[{"text":"x"}]}],"last":null}}}`)))
	handler := newServer(t, storage.NewProvider(backend))

	rr := get(t, handler, "/api/v1/scopes/5/history")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

type failingStore struct {
	*storage.Provider
}

func (failingStore) Keys(context.Context) ([]string, error) {
	return nil, errors.New("backend down")
}

func TestServer_StoreFailure(t *testing.T) {
	handler := newServer(t, failingStore{storage.NewProvider(storage.NewMemory(0))})
	rr := get(t, handler, "/api/v1/scopes")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
