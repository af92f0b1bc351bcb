package domain

// Payload — желаемое содержимое следующего экрана.
// Text == nil означает отсутствие текста; указатель на пустую строку —
// явное намерение очистить подпись (вместе с Erase).
type Payload struct {
	Text    *string
	Media   *MediaItem
	Group   []MediaItem
	Reply   *Markup
	Preview *Preview
	Extra   *Extra
	Erase   bool
}

// Str возвращает указатель на строку.
func Str(s string) *string {
	return &s
}

// TextPayload создает текстовый payload.
func TextPayload(text string) Payload {
	return Payload{Text: Str(text)}
}

// MediaPayload создает payload с одиночным медиа.
func MediaPayload(item MediaItem) Payload {
	return Payload{Media: &item}
}

// GroupPayload создает payload с альбомом.
func GroupPayload(items ...MediaItem) Payload {
	return Payload{Group: items}
}

// Photo — короткий конструктор фото.
func Photo(path string) MediaItem {
	return MediaItem{Type: MediaPhoto, Path: path}
}

// TextValue возвращает текст или пустую строку.
func (p Payload) TextValue() string {
	if p.Text == nil {
		return ""
	}
	return *p.Text
}

// IsMedia сообщает, несет ли payload одиночное медиа.
func (p Payload) IsMedia() bool {
	return p.Media != nil
}

// IsGroup сообщает, несет ли payload альбом.
func (p Payload) IsGroup() bool {
	return len(p.Group) > 0
}

// Meaningful сообщает, есть ли в payload текст или медиа для отправки.
func (p Payload) Meaningful() bool {
	return p.TextValue() != "" || p.Media != nil || len(p.Group) > 0
}

// Clone возвращает глубокую копию payload.
func (p Payload) Clone() Payload {
	c := p
	if p.Text != nil {
		c.Text = Str(*p.Text)
	}
	if p.Media != nil {
		m := p.Media.Clone()
		c.Media = &m
	}
	if p.Group != nil {
		c.Group = make([]MediaItem, len(p.Group))
		for i, item := range p.Group {
			c.Group[i] = item.Clone()
		}
	}
	c.Reply = p.Reply.Clone()
	c.Preview = p.Preview.Clone()
	c.Extra = p.Extra.Clone()
	return c
}
