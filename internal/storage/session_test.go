package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-navigator/internal/codec"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
)

var scope = domain.Scope{Chat: 42}

func sampleEntries() []domain.Entry {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return []domain.Entry{
		{State: "home", View: "home", Root: true, Messages: []domain.Message{{ID: 1, Text: "home", TS: ts}}},
		{State: "item", Messages: []domain.Message{{ID: 2, Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "p", Caption: "c"}, TS: ts}}},
	}
}

func TestSession_HistoryAndMarker(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory(0)
	session := NewProvider(backend).For(scope)

	history, err := session.Recall(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	last, err := session.Peek(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	entries := sampleEntries()
	require.NoError(t, session.Archive(ctx, entries))
	id := 2
	require.NoError(t, session.Mark(ctx, &id))

	history, err = session.Recall(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, history)

	last, err = session.Peek(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 2, *last)

	// Перезапись истории не сбрасывает маркер.
	require.NoError(t, session.Archive(ctx, entries[:1]))
	last, err = session.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, *last)

	require.NoError(t, session.Mark(ctx, nil))
	history, err = session.Recall(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSession_DocumentLayout(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory(0)
	session := NewProvider(backend).For(scope)

	require.NoError(t, session.Assign(ctx, "home"))
	require.NoError(t, session.Archive(ctx, sampleEntries()[:1]))
	id := 1
	require.NoError(t, session.Mark(ctx, &id))

	raw, err := backend.Load(ctx, "42")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "home", doc["state"])
	data := doc["data"].(map[string]any)
	nav := data[codec.NamespaceKey].(map[string]any)
	assert.Equal(t, float64(1), nav["last"])
	require.Len(t, nav["history"], 1)
}

func TestSession_State(t *testing.T) {
	ctx := context.Background()
	session := NewProvider(NewMemory(0)).Session(scope.Key())

	state, err := session.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, session.Assign(ctx, "details"))
	state, err = session.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "details", state)

	require.NoError(t, session.Update(ctx, map[string]any{"name": "Анна", "page": 3}))
	require.NoError(t, session.Archive(ctx, sampleEntries()))

	data, err := session.Payload(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Анна", "page": float64(3)}, data)

	err = session.Update(ctx, map[string]any{codec.NamespaceKey + "x": 1})
	assert.ErrorIs(t, err, ErrReservedKey)

	require.NoError(t, session.Assign(ctx, ""))
	state, err = session.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestSession_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	provider := NewProvider(NewMemory(0))
	plain := provider.For(domain.Scope{Chat: 1})
	inline := provider.For(domain.Scope{Chat: 1, Inline: "tok"})

	require.NoError(t, plain.Assign(ctx, "a"))
	require.NoError(t, inline.Assign(ctx, "b"))

	state, err := plain.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", state)

	keys, err := provider.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1:tok"}, keys)
}

func TestSession_SchemaValidation(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory(0)
	validator, err := codec.NewValidator()
	require.NoError(t, err)

	var logs bytes.Buffer
	telemetry := log.NewTelemetry(slog.New(slog.NewJSONHandler(&logs, nil)))
	session := NewProvider(backend, WithValidator(validator), WithTelemetry(telemetry)).For(scope)

	broken := `{"state":null,"data":{"__nav__":{"history":[{"messages":[{"id":"x","automated":false,"ts":"2024-01-01T00:00:00.000Z"}]}],"last":null}}}`
	require.NoError(t, backend.Save(ctx, "42", []byte(broken)))

	_, err = session.Recall(ctx)
	assert.ErrorIs(t, err, codec.ErrSchemaInvalid)
	assert.Contains(t, logs.String(), string(log.StorageSchemaInvalid))
}

func TestSession_DecodeFailureWithoutValidator(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory(0)
	session := NewProvider(backend).For(scope)

	broken := `{"data":{"__nav__":{"history":[{"messages":[{"id":1,"ts":"2024-01-01T00:00:00.000Z"}]}]}}}`
	require.NoError(t, backend.Save(ctx, "42", []byte(broken)))

	_, err := session.Recall(ctx)
	assert.ErrorIs(t, err, codec.ErrMissingField)
}

func TestProvider_RawAndReset(t *testing.T) {
	ctx := context.Background()
	provider := NewProvider(NewMemory(0))
	session := provider.Session(scope.Key())

	raw, err := provider.Raw(ctx, scope.Key())
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, session.Archive(ctx, sampleEntries()))
	raw, err = provider.Raw(ctx, scope.Key())
	require.NoError(t, err)
	history, last, err := codec.DecodeNamespace(raw)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Nil(t, last)

	require.NoError(t, session.Reset(ctx))
	raw, err = provider.Raw(ctx, scope.Key())
	require.NoError(t, err)
	assert.Nil(t, raw)
}
