package codec

import (
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/xerrors"

	"telegram-navigator/internal/domain"
)

// Ошибки разбора сохраненной истории.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
)

// EncodeMessage кодирует сообщение в запись формата хранилища.
func EncodeMessage(m domain.Message) (json.RawMessage, error) {
	rec := messageRecord{
		ID:        &m.ID,
		Text:      nullable(m.Text),
		Extras:    append([]int{}, m.Extras...),
		Inline:    nullable(m.Inline),
		Automated: &m.Automated,
	}
	ts := m.TS.UTC().Format(TimeLayout)
	rec.TS = &ts

	if m.Media != nil {
		item, err := encodeMedia(*m.Media)
		if err != nil {
			return nil, xerrors.Errorf("media: %w", err)
		}
		rec.Media = &item
	}
	for i, media := range m.Group {
		item, err := encodeMedia(media)
		if err != nil {
			return nil, xerrors.Errorf("group[%d]: %w", i, err)
		}
		rec.Group = append(rec.Group, item)
	}
	if m.Markup != nil {
		rec.Markup = &markupRecord{Kind: m.Markup.Kind, Data: m.Markup.Data}
		if rec.Markup.Data == nil {
			rec.Markup.Data = map[string]any{}
		}
	}
	if m.Preview != nil {
		rec.Preview = &previewRecord{
			URL:      nullable(m.Preview.URL),
			Small:    m.Preview.Small,
			Large:    m.Preview.Large,
			Above:    m.Preview.Above,
			Disabled: m.Preview.Disabled,
		}
	}
	extra, err := encodeExtra(m.Extra, contentLength(m))
	if err != nil {
		return nil, xerrors.Errorf("extra: %w", err)
	}
	rec.Extra = extra

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, xerrors.Errorf("не удалось закодировать сообщение %d: %w", m.ID, err)
	}
	return data, nil
}

// DecodeMessage разбирает запись сообщения. Поля id, automated и ts обязательны.
func DecodeMessage(data []byte) (domain.Message, error) {
	var rec messageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Message{}, xerrors.Errorf("%v: %w", err, ErrInvalidField)
	}
	switch {
	case rec.ID == nil:
		return domain.Message{}, xerrors.Errorf("id: %w", ErrMissingField)
	case rec.Automated == nil:
		return domain.Message{}, xerrors.Errorf("automated: %w", ErrMissingField)
	case rec.TS == nil:
		return domain.Message{}, xerrors.Errorf("ts: %w", ErrMissingField)
	}
	ts, err := time.Parse(time.RFC3339Nano, *rec.TS)
	if err != nil {
		return domain.Message{}, xerrors.Errorf("ts: %v: %w", err, ErrInvalidField)
	}

	m := domain.Message{
		ID:        *rec.ID,
		Text:      deref(rec.Text),
		Inline:    deref(rec.Inline),
		Automated: *rec.Automated,
		TS:        ts.UTC(),
	}
	if len(rec.Extras) > 0 {
		m.Extras = rec.Extras
	}
	if rec.Media != nil {
		item, err := decodeMedia(*rec.Media)
		if err != nil {
			return domain.Message{}, xerrors.Errorf("media: %w", err)
		}
		m.Media = &item
	}
	for i, raw := range rec.Group {
		item, err := decodeMedia(raw)
		if err != nil {
			return domain.Message{}, xerrors.Errorf("group[%d]: %w", i, err)
		}
		m.Group = append(m.Group, item)
	}
	if rec.Markup != nil {
		if rec.Markup.Kind == "" {
			return domain.Message{}, xerrors.Errorf("markup.kind: %w", ErrMissingField)
		}
		m.Markup = &domain.Markup{Kind: rec.Markup.Kind}
		if len(rec.Markup.Data) > 0 {
			m.Markup.Data = rec.Markup.Data
		}
	}
	if rec.Preview != nil {
		m.Preview = &domain.Preview{
			URL:      deref(rec.Preview.URL),
			Small:    rec.Preview.Small,
			Large:    rec.Preview.Large,
			Above:    rec.Preview.Above,
			Disabled: rec.Preview.Disabled,
		}
	}
	extra, err := decodeExtra(rec.Extra, contentLength(m))
	if err != nil {
		return domain.Message{}, xerrors.Errorf("extra: %v: %w", err, ErrInvalidField)
	}
	m.Extra = extra
	return m, nil
}

func encodeMedia(item domain.MediaItem) (mediaRecord, error) {
	extra, err := encodeExtra(item.Extra, domain.TextLength(item.Caption))
	if err != nil {
		return mediaRecord{}, err
	}
	return mediaRecord{Type: string(item.Type), File: item.Path, Caption: nullable(item.Caption), Extra: extra}, nil
}

func decodeMedia(rec mediaRecord) (domain.MediaItem, error) {
	kind := domain.MediaType(rec.Type)
	if !kind.Valid() {
		return domain.MediaItem{}, xerrors.Errorf("type %q: %w", rec.Type, ErrInvalidField)
	}
	if rec.File == "" {
		return domain.MediaItem{}, xerrors.Errorf("file: %w", ErrMissingField)
	}
	item := domain.MediaItem{Type: kind, Path: rec.File, Caption: deref(rec.Caption)}
	extra, err := decodeExtra(rec.Extra, domain.TextLength(item.Caption))
	if err != nil {
		return domain.MediaItem{}, xerrors.Errorf("extra: %v: %w", err, ErrInvalidField)
	}
	item.Extra = extra
	return item, nil
}

// contentLength возвращает длину содержимого, к которому относятся сущности сообщения.
func contentLength(m domain.Message) int {
	switch {
	case m.Media != nil:
		return domain.TextLength(m.Media.Caption)
	case len(m.Group) > 0:
		return domain.TextLength(m.Group[0].Caption)
	default:
		return domain.TextLength(m.Text)
	}
}

// EncodeEntry кодирует кадр истории.
func EncodeEntry(e domain.Entry) ([]byte, error) {
	rec, err := entryOf(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// DecodeEntry разбирает кадр истории.
func DecodeEntry(data []byte) (domain.Entry, error) {
	var rec entryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Entry{}, xerrors.Errorf("%v: %w", err, ErrInvalidField)
	}
	return fromEntry(rec)
}

func entryOf(e domain.Entry) (entryRecord, error) {
	rec := entryRecord{State: nullable(e.State), View: nullable(e.View), Root: e.Root, Messages: []json.RawMessage{}}
	for i, m := range e.Messages {
		raw, err := EncodeMessage(m)
		if err != nil {
			return entryRecord{}, xerrors.Errorf("messages[%d]: %w", i, err)
		}
		rec.Messages = append(rec.Messages, raw)
	}
	return rec, nil
}

func fromEntry(rec entryRecord) (domain.Entry, error) {
	e := domain.Entry{State: deref(rec.State), View: deref(rec.View), Root: rec.Root}
	for i, raw := range rec.Messages {
		m, err := DecodeMessage(raw)
		if err != nil {
			return domain.Entry{}, xerrors.Errorf("messages[%d]: %w", i, err)
		}
		e.Messages = append(e.Messages, m)
	}
	return e, nil
}

// EncodeHistory кодирует историю в массив записей кадров.
func EncodeHistory(history []domain.Entry) (json.RawMessage, error) {
	records := make([]entryRecord, 0, len(history))
	for i, e := range history {
		entry, err := entryOf(e)
		if err != nil {
			return nil, xerrors.Errorf("history[%d]: %w", i, err)
		}
		records = append(records, entry)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, xerrors.Errorf("не удалось закодировать историю: %w", err)
	}
	return data, nil
}

// DecodeHistory разбирает массив записей кадров. Пустое значение и null дают пустую историю.
func DecodeHistory(data []byte) ([]domain.Entry, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var records []entryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, xerrors.Errorf("history: %v: %w", err, ErrInvalidField)
	}
	var history []domain.Entry
	for i, rec := range records {
		e, err := fromEntry(rec)
		if err != nil {
			return nil, xerrors.Errorf("history[%d]: %w", i, err)
		}
		history = append(history, e)
	}
	return history, nil
}

// EncodeNamespace кодирует историю и маркер в значение data[NamespaceKey].
func EncodeNamespace(history []domain.Entry, last *int) (json.RawMessage, error) {
	encoded, err := EncodeHistory(history)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(namespaceRecord{History: encoded, Last: last})
	if err != nil {
		return nil, xerrors.Errorf("не удалось закодировать пространство навигатора: %w", err)
	}
	return data, nil
}

// DecodeNamespace разбирает значение data[NamespaceKey]. Пустое значение дает пустую историю.
func DecodeNamespace(data []byte) ([]domain.Entry, *int, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil, nil
	}
	var rec namespaceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil, xerrors.Errorf("%v: %w", err, ErrInvalidField)
	}
	history, err := DecodeHistory(rec.History)
	if err != nil {
		return nil, nil, err
	}
	return history, rec.Last, nil
}
