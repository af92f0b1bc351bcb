package domain

import "strings"

// MediaType — тип медиа-вложения.
type MediaType string

const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaDocument  MediaType = "document"
	MediaAudio     MediaType = "audio"
	MediaAnimation MediaType = "animation"
	MediaVoice     MediaType = "voice"
	MediaVideoNote MediaType = "video_note"
)

// Valid сообщает, является ли тип известным.
func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaAnimation, MediaVoice, MediaVideoNote:
		return true
	}
	return false
}

// Ephemeral сообщает, относится ли тип к голосовым/кружкам, которые нельзя редактировать.
func (t MediaType) Ephemeral() bool {
	return t == MediaVoice || t == MediaVideoNote
}

// MediaItem описывает одно медиа-вложение.
// Path — идентификатор файла на стороне транспорта или ссылка на локальный ресурс;
// ядро сравнивает только строковую идентичность.
type MediaItem struct {
	Type    MediaType `json:"type"`
	Path    string    `json:"file"`
	Caption string    `json:"caption,omitempty"`
	Extra   *Extra    `json:"extra,omitempty"`
}

// Clone возвращает глубокую копию элемента.
func (m MediaItem) Clone() MediaItem {
	m.Extra = m.Extra.Clone()
	return m
}

// IsLocalPath сообщает, указывает ли путь на локальный (не загруженный) ресурс.
// Удаленные идентификаторы файлов и http(s)-ссылки локальными не считаются.
func IsLocalPath(path string) bool {
	switch {
	case path == "":
		return false
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return false
	case strings.HasPrefix(path, "file://"):
		return true
	}
	return strings.ContainsAny(path, `/\`) || strings.HasPrefix(path, ".")
}
