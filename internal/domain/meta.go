package domain

// Meta — подтверждение транспорта о том, что фактически отображено.
// Реализации: TextMeta, MediaMeta, GroupMeta.
type Meta interface {
	InlineID() string
	isMeta()
}

// TextMeta — подтверждение текстового сообщения.
type TextMeta struct {
	Text   string
	Inline string
}

// MediaMeta — подтверждение медиа-сообщения.
// Caption == nil означает, что транспорт не вернул подпись.
type MediaMeta struct {
	Medium  MediaType
	File    string
	Caption *string
	Inline  string
}

// GroupMeta — подтверждение альбома: по одному кластеру на элемент.
type GroupMeta struct {
	Clusters []MediaMeta
	Inline   string
}

func (m TextMeta) InlineID() string  { return m.Inline }
func (m MediaMeta) InlineID() string { return m.Inline }
func (m GroupMeta) InlineID() string { return m.Inline }

func (TextMeta) isMeta()  {}
func (MediaMeta) isMeta() {}
func (GroupMeta) isMeta() {}

// MetaOf восстанавливает подтверждение из сохраненного сообщения.
func MetaOf(m *Message) Meta {
	switch {
	case m == nil:
		return nil
	case len(m.Group) > 0:
		clusters := make([]MediaMeta, len(m.Group))
		for i, item := range m.Group {
			clusters[i] = MediaMeta{Medium: item.Type, File: item.Path, Caption: Str(item.Caption), Inline: m.Inline}
		}
		return GroupMeta{Clusters: clusters, Inline: m.Inline}
	case m.Media != nil:
		return MediaMeta{Medium: m.Media.Type, File: m.Media.Path, Caption: Str(m.Media.Caption), Inline: m.Inline}
	default:
		return TextMeta{Text: m.Text, Inline: m.Inline}
	}
}
