package codec

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-navigator/internal/domain"
)

func sampleHistory() ([]domain.Entry, *int) {
	base := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	last := 30
	return []domain.Entry{
		{
			State: "home",
			View:  "home",
			Root:  true,
			Messages: []domain.Message{{
				ID:   10,
				Text: "Привет, *мир*",
				Markup: &domain.Markup{Kind: domain.MarkupInlineKeyboard, Data: map[string]any{
					"inline_keyboard": []any{[]any{map[string]any{"text": "Далее", "callback_data": "nav:next"}}},
				}},
				Preview: &domain.Preview{URL: "https://example.com", Large: true},
				Extra:   &domain.Extra{Mode: "MarkdownV2", Entities: []domain.Entity{{Type: "bold", Offset: 8, Length: 5}}},
				TS:      base,
			}},
		},
		{
			State: "gallery",
			Messages: []domain.Message{{
				ID: 20,
				Group: []domain.MediaItem{
					{Type: domain.MediaPhoto, Path: "file-a", Caption: "Альбом"},
					{Type: domain.MediaPhoto, Path: "file-b"},
				},
				Extras:    []int{21},
				Automated: true,
				TS:        time.Date(2024, 5, 6, 7, 8, 10, 0, time.UTC),
			}},
		},
		{
			Messages: []domain.Message{{
				ID:     30,
				Media:  &domain.MediaItem{Type: domain.MediaVideo, Path: "file-v", Caption: "Clip"},
				Extra:  &domain.Extra{Spoiler: true, Start: 5, Thumb: true},
				Inline: "tok",
				TS:     time.Date(2024, 5, 6, 7, 8, 11, 500_000_000, time.UTC),
			}},
		},
	}, &last
}

func indent(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Indent(&buf, raw, "", "  "))
	return buf.Bytes()
}

func TestEncodeNamespace_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)

	history, last := sampleHistory()
	raw, err := EncodeNamespace(history, last)
	require.NoError(t, err)
	g.Assert(t, "history", indent(t, raw))

	raw, err = EncodeNamespace(nil, nil)
	require.NoError(t, err)
	g.Assert(t, "empty", indent(t, raw))
}

func TestNamespace_RoundTrip(t *testing.T) {
	history, last := sampleHistory()
	raw, err := EncodeNamespace(history, last)
	require.NoError(t, err)

	decoded, marker, err := DecodeNamespace(raw)
	require.NoError(t, err)
	assert.Equal(t, history, decoded)
	require.NotNil(t, marker)
	assert.Equal(t, 30, *marker)
}

func TestEntry_RoundTrip(t *testing.T) {
	history, _ := sampleHistory()
	for _, e := range history {
		raw, err := EncodeEntry(e)
		require.NoError(t, err)
		decoded, err := DecodeEntry(raw)
		require.NoError(t, err)
		assert.Equal(t, e, decoded)
	}
}

func TestDecodeNamespace_Empty(t *testing.T) {
	history, last, err := DecodeNamespace(nil)
	require.NoError(t, err)
	assert.Nil(t, history)
	assert.Nil(t, last)

	history, last, err = DecodeNamespace([]byte(`{"history":[],"last":null}`))
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Nil(t, last)
}

func TestDecodeMessage_Failures(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want error
	}{
		{"missing id", `{"automated":false,"ts":"2024-01-01T00:00:00.000Z"}`, ErrMissingField},
		{"missing automated", `{"id":1,"ts":"2024-01-01T00:00:00.000Z"}`, ErrMissingField},
		{"missing ts", `{"id":1,"automated":false}`, ErrMissingField},
		{"bad ts", `{"id":1,"automated":false,"ts":"yesterday"}`, ErrInvalidField},
		{"fractional extras", `{"id":1,"automated":false,"ts":"2024-01-01T00:00:00.000Z","extras":[1.5]}`, ErrInvalidField},
		{"string extras", `{"id":1,"automated":false,"ts":"2024-01-01T00:00:00.000Z","extras":["2"]}`, ErrInvalidField},
		{"unknown media type", `{"id":1,"automated":false,"ts":"2024-01-01T00:00:00.000Z","media":{"type":"hologram","file":"x"}}`, ErrInvalidField},
		{"media without file", `{"id":1,"automated":false,"ts":"2024-01-01T00:00:00.000Z","media":{"type":"photo","file":""}}`, ErrMissingField},
		{"markup without kind", `{"id":1,"automated":false,"ts":"2024-01-01T00:00:00.000Z","markup":{"data":{}}}`, ErrMissingField},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tc.raw))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeNamespace_ErrorPath(t *testing.T) {
	raw := `{"history":[{"messages":[]},{"messages":[{"id":1,"automated":true}]}],"last":1}`
	_, _, err := DecodeNamespace([]byte(raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "history[1]")
	assert.Contains(t, err.Error(), "messages[0]")
	assert.Contains(t, err.Error(), "ts")
}

func TestDecodeMessage_AcceptsSecondPrecision(t *testing.T) {
	m, err := DecodeMessage([]byte(`{"id":4,"automated":false,"ts":"2024-01-01T10:00:00Z","text":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), m.TS)
	assert.Equal(t, "x", m.Text)
	assert.Nil(t, m.Extras)
}

func TestEncodeMessage_TimestampLayout(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	raw, err := EncodeMessage(domain.Message{ID: 1, Text: "x", TS: time.Date(2024, 1, 1, 13, 0, 0, 7_000_000, moscow)})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "2024-01-01T10:00:00.007Z", fields["ts"])
	assert.Equal(t, []any{}, fields["extras"])
	assert.Nil(t, fields["inline"])
}

func TestEncodeMessage_DropsInvalidEntities(t *testing.T) {
	m := domain.Message{ID: 1, Text: "abc", TS: time.Unix(0, 0), Extra: &domain.Extra{Entities: []domain.Entity{
		{Type: "bold", Offset: 0, Length: 3},
		{Type: "bold", Offset: 2, Length: 5},
		{Type: "blink", Offset: 0, Length: 1},
	}}}
	raw, err := EncodeMessage(m)
	require.NoError(t, err)

	decoded, err := DecodeMessage(raw)
	require.NoError(t, err)
	require.NotNil(t, decoded.Extra)
	assert.Equal(t, []domain.Entity{{Type: "bold", Offset: 0, Length: 3}}, decoded.Extra.Entities)

	m.Extra = &domain.Extra{Entities: []domain.Entity{{Type: "bold", Offset: 5, Length: 1}}}
	raw, err = EncodeMessage(m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"extra":null`)
}

func TestSanitizeExtra(t *testing.T) {
	testCases := []struct {
		name   string
		raw    map[string]any
		length int
		want   *domain.Extra
	}{
		{"empty", nil, 0, nil},
		{"unknown keys only", map[string]any{"reply_to": 5.0, "disable_notification": true}, 0, nil},
		{"thumb bytes become flag", map[string]any{"thumb": "iVBORw0KGgo="}, 0, &domain.Extra{Thumb: true}},
		{"aliases", map[string]any{"parse_mode": "HTML", "has_spoiler": true, "show_caption_above_media": true}, 0,
			&domain.Extra{Mode: "HTML", Spoiler: true, Above: true}},
		{"fractional start ignored", map[string]any{"start": 1.5, "mode": "HTML"}, 0, &domain.Extra{Mode: "HTML"}},
		{"entities validated", map[string]any{"entities": []any{
			map[string]any{"type": "text_mention", "offset": 0.0, "length": 2.0, "user": map[string]any{"id": 77.0}},
			map[string]any{"type": "bold", "offset": -1.0, "length": 2.0},
			map[string]any{"type": "italic", "offset": 1.0, "length": 0.0},
			"junk",
		}}, 4, &domain.Extra{Entities: []domain.Entity{{Type: "text_mention", Offset: 0, Length: 2, User: 77}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeExtra(tc.raw, tc.length))
		})
	}
}
