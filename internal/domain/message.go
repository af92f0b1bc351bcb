package domain

import (
	"slices"
	"time"
)

// Message — одно сохраненное отрисованное сообщение чата.
// Extras хранит идентификаторы соседних элементов альбома и присутствует только у головы.
type Message struct {
	ID        int
	Text      string
	Media     *MediaItem
	Group     []MediaItem
	Markup    *Markup
	Preview   *Preview
	Extra     *Extra
	Extras    []int
	Inline    string
	Automated bool
	TS        time.Time
}

// IsMedia сообщает, является ли сообщение одиночным медиа.
func (m *Message) IsMedia() bool {
	return m != nil && m.Media != nil
}

// IsGroup сообщает, является ли сообщение головой альбома.
func (m *Message) IsGroup() bool {
	return m != nil && len(m.Group) > 0
}

// Caption возвращает подпись одиночного медиа.
func (m *Message) Caption() string {
	if m == nil || m.Media == nil {
		return ""
	}
	return m.Media.Caption
}

// IDs возвращает идентификатор сообщения вместе с идентификаторами альбома.
func (m *Message) IDs() []int {
	ids := make([]int, 0, 1+len(m.Extras))
	ids = append(ids, m.ID)
	return append(ids, m.Extras...)
}

// Clone возвращает глубокую копию сообщения.
func (m Message) Clone() Message {
	c := m
	if m.Media != nil {
		media := m.Media.Clone()
		c.Media = &media
	}
	if m.Group != nil {
		c.Group = make([]MediaItem, len(m.Group))
		for i, item := range m.Group {
			c.Group[i] = item.Clone()
		}
	}
	c.Markup = m.Markup.Clone()
	c.Preview = m.Preview.Clone()
	c.Extra = m.Extra.Clone()
	if m.Extras != nil {
		c.Extras = append([]int(nil), m.Extras...)
	}
	return c
}

// Entry — один кадр истории: снимок отрисованного экрана.
// View — ключ реестра для динамического восстановления; Root помечает неудаляемую базу.
type Entry struct {
	State    string
	View     string
	Messages []Message
	Root     bool
}

// Head возвращает первое сообщение кадра.
func (e *Entry) Head() (*Message, bool) {
	if e == nil || len(e.Messages) == 0 {
		return nil, false
	}
	return &e.Messages[0], true
}

// IDs возвращает все идентификаторы сообщений кадра, включая элементы альбомов.
func (e *Entry) IDs() []int {
	var ids []int
	for i := range e.Messages {
		ids = append(ids, e.Messages[i].IDs()...)
	}
	return ids
}

// Clone возвращает глубокую копию кадра.
func (e Entry) Clone() Entry {
	c := e
	if e.Messages != nil {
		c.Messages = make([]Message, len(e.Messages))
		for i, m := range e.Messages {
			c.Messages[i] = m.Clone()
		}
	}
	return c
}

// CloneHistory возвращает глубокую копию истории.
func CloneHistory(history []Entry) []Entry {
	if history == nil {
		return nil
	}
	out := make([]Entry, len(history))
	for i, e := range history {
		out[i] = e.Clone()
	}
	return out
}

// Trim применяет политику удержания: корень сохраняется всегда,
// при переполнении удаляется самый старый не-корневой кадр.
// Исходный срез не изменяется.
func Trim(history []Entry, limit int) []Entry {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	out := slices.Clone(history)
	for len(out) > limit {
		if out[0].Root {
			if len(out) == 1 {
				break
			}
			out = slices.Delete(out, 1, 2)
			continue
		}
		out = out[1:]
	}
	return out
}
