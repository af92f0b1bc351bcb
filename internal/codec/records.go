// Package codec кодирует историю навигатора в JSON-формат хранилища и обратно.
//
// Формат стабилен: на него опираются внешние системы, читающие хранилище.
package codec

import "encoding/json"

// TimeLayout — формат меток времени: UTC с миллисекундами и суффиксом Z.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// NamespaceKey — ключ пространства навигатора в данных FSM.
const NamespaceKey = "__nav__"

// namespaceRecord — содержимое data[NamespaceKey].
type namespaceRecord struct {
	History json.RawMessage `json:"history"`
	Last    *int            `json:"last"`
}

type entryRecord struct {
	State    *string           `json:"state"`
	View     *string           `json:"view"`
	Root     bool              `json:"root"`
	Messages []json.RawMessage `json:"messages"`
}

type messageRecord struct {
	ID        *int            `json:"id"`
	Text      *string         `json:"text"`
	Media     *mediaRecord    `json:"media"`
	Group     []mediaRecord   `json:"group"`
	Markup    *markupRecord   `json:"markup"`
	Preview   *previewRecord  `json:"preview"`
	Extra     json.RawMessage `json:"extra"`
	Extras    []int           `json:"extras"`
	Inline    *string         `json:"inline"`
	Automated *bool           `json:"automated"`
	TS        *string         `json:"ts"`
}

type mediaRecord struct {
	Type    string          `json:"type"`
	File    string          `json:"file"`
	Caption *string         `json:"caption"`
	Extra   json.RawMessage `json:"extra,omitempty"`
}

type markupRecord struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

type previewRecord struct {
	URL      *string `json:"url"`
	Small    bool    `json:"small"`
	Large    bool    `json:"large"`
	Above    bool    `json:"above"`
	Disabled *bool   `json:"disabled"`
}

type entityRecord struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	User     int64  `json:"user,omitempty"`
	Language string `json:"language,omitempty"`
}

type extraRecord struct {
	Mode     string         `json:"mode,omitempty"`
	Entities []entityRecord `json:"entities,omitempty"`
	Spoiler  bool           `json:"spoiler,omitempty"`
	Start    int            `json:"start,omitempty"`
	HasThumb bool           `json:"has_thumb,omitempty"`
	Above    bool           `json:"above,omitempty"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
