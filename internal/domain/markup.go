package domain

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// Известные классы разметки ответа.
const (
	MarkupInlineKeyboard = "InlineKeyboardMarkup"
	MarkupReplyKeyboard  = "ReplyKeyboardMarkup"
	MarkupReplyRemove    = "ReplyKeyboardRemove"
	MarkupForceReply     = "ForceReply"
)

// Markup — разметка ответа: непрозрачный класс и структурные данные.
type Markup struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

// Inline сообщает, является ли разметка inline-клавиатурой.
func (m *Markup) Inline() bool {
	return m != nil && m.Kind == MarkupInlineKeyboard
}

// Supported сообщает, знает ли транспорт этот класс разметки.
func (m *Markup) Supported() bool {
	if m == nil {
		return false
	}
	switch m.Kind {
	case MarkupInlineKeyboard, MarkupReplyKeyboard, MarkupReplyRemove, MarkupForceReply:
		return true
	}
	return false
}

// Clone возвращает глубокую копию разметки.
func (m *Markup) Clone() *Markup {
	if m == nil {
		return nil
	}
	return &Markup{Kind: m.Kind, Data: cloneMap(m.Data)}
}

// Canonical возвращает каноническое JSON-представление данных разметки:
// ключи отсортированы, строки приведены к NFC, без HTML-экранирования.
func (m *Markup) Canonical() string {
	if m == nil {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalizeValue(m.Data)); err != nil {
		return ""
	}
	return m.Kind + ":" + string(bytes.TrimSpace(buf.Bytes()))
}

// MarkupEqual сравнивает разметки по классу и канонической форме данных.
func MarkupEqual(a, b *Markup) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Canonical() == b.Canonical()
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[norm.NFC.String(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
