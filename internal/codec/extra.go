package codec

import (
	"encoding/json"
	"math"

	"telegram-navigator/internal/domain"
)

// SanitizeExtra оставляет из произвольного набора параметров только известные ключи.
// Сущности проверяются по длине содержимого length. Байты превью не сохраняются:
// их наличие отмечается признаком has_thumb.
func SanitizeExtra(raw map[string]any, length int) *domain.Extra {
	if len(raw) == 0 {
		return nil
	}
	var e domain.Extra
	if mode, ok := raw["mode"].(string); ok {
		e.Mode = mode
	} else if mode, ok := raw["parse_mode"].(string); ok {
		e.Mode = mode
	}
	e.Spoiler = flag(raw, "spoiler", "has_spoiler")
	e.Above = flag(raw, "above", "show_caption_above_media")
	e.Thumb = flag(raw, "has_thumb")
	if thumb, ok := raw["thumb"]; ok && thumb != nil {
		e.Thumb = true
	}
	if start, ok := integer(raw["start"]); ok && start > 0 {
		e.Start = start
	}
	if list, ok := raw["entities"].([]any); ok {
		e.Entities = domain.ValidEntities(entities(list), length)
	} else if list, ok := raw["caption_entities"].([]any); ok {
		e.Entities = domain.ValidEntities(entities(list), length)
	}
	if e.Empty() {
		return nil
	}
	return &e
}

func flag(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := raw[key].(bool); ok && v {
			return true
		}
	}
	return false
}

func integer(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func entities(list []any) []domain.Entity {
	out := make([]domain.Entity, 0, len(list))
	for _, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := fields["type"].(string)
		offset, okOffset := integer(fields["offset"])
		length, okLength := integer(fields["length"])
		if !okOffset || !okLength {
			continue
		}
		entity := domain.Entity{Type: kind, Offset: offset, Length: length}
		entity.URL, _ = fields["url"].(string)
		entity.Language, _ = fields["language"].(string)
		switch user := fields["user"].(type) {
		case map[string]any:
			if id, ok := integer(user["id"]); ok {
				entity.User = int64(id)
			}
		default:
			if id, ok := integer(user); ok {
				entity.User = int64(id)
			}
		}
		out = append(out, entity)
	}
	return out
}

// encodeExtra повторно санитизирует набор перед записью.
func encodeExtra(e *domain.Extra, length int) (json.RawMessage, error) {
	if e.Empty() {
		return nil, nil
	}
	rec := extraRecord{Mode: e.Mode, Spoiler: e.Spoiler, Start: e.Start, HasThumb: e.Thumb, Above: e.Above}
	for _, entity := range domain.ValidEntities(e.Entities, length) {
		rec.Entities = append(rec.Entities, entityRecord(entity))
	}
	if rec.Start < 0 {
		rec.Start = 0
	}
	if rec.Mode == "" && len(rec.Entities) == 0 && !rec.Spoiler && rec.Start == 0 && !rec.HasThumb && !rec.Above {
		return nil, nil
	}
	return json.Marshal(rec)
}

// decodeExtra восстанавливает набор из сырого JSON. Пустое значение и null дают nil.
func decodeExtra(raw json.RawMessage, length int) (*domain.Extra, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return SanitizeExtra(fields, length), nil
}
