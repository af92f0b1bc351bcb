package domain

// Entity — разметка фрагмента текста или подписи.
// Offset и Length измеряются в UTF-16 кодовых единицах, как в Bot API.
type Entity struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	User     int64  `json:"user,omitempty"`
	Language string `json:"language,omitempty"`
}

// EntityTypes — допустимые типы сущностей.
var EntityTypes = map[string]struct{}{
	"mention": {}, "hashtag": {}, "cashtag": {}, "bot_command": {}, "url": {},
	"email": {}, "phone_number": {}, "bold": {}, "italic": {}, "underline": {},
	"strikethrough": {}, "spoiler": {}, "blockquote": {}, "expandable_blockquote": {},
	"code": {}, "pre": {}, "text_link": {}, "text_mention": {}, "custom_emoji": {},
}

// Extra — узкий санитизированный набор дополнительных параметров отправки.
type Extra struct {
	Mode     string   `json:"mode,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
	Spoiler  bool     `json:"spoiler,omitempty"`
	Start    int      `json:"start,omitempty"`
	Thumb    bool     `json:"has_thumb,omitempty"`
	Above    bool     `json:"above,omitempty"`
}

// Clone возвращает глубокую копию.
func (e *Extra) Clone() *Extra {
	if e == nil {
		return nil
	}
	c := *e
	if e.Entities != nil {
		c.Entities = append([]Entity(nil), e.Entities...)
	}
	return &c
}

// Empty сообщает, не несет ли набор никаких значений.
func (e *Extra) Empty() bool {
	return e == nil || (e.Mode == "" && len(e.Entities) == 0 && !e.Spoiler && e.Start == 0 && !e.Thumb && !e.Above)
}

// Textual возвращает подмножество {mode, entities}.
func (e *Extra) Textual() (string, []Entity) {
	if e == nil {
		return "", nil
	}
	return e.Mode, e.Entities
}

// CaptionAbove сообщает, нужно ли показывать подпись над медиа.
func (e *Extra) CaptionAbove() bool {
	return e != nil && e.Above
}

// TextualEqual сравнивает только текстовую часть дополнительных параметров.
func TextualEqual(a, b *Extra) bool {
	am, ae := a.Textual()
	bm, be := b.Textual()
	if am != bm || len(ae) != len(be) {
		return false
	}
	for i := range ae {
		if ae[i] != be[i] {
			return false
		}
	}
	return true
}

// Profile — изменяемый профиль медиа, требующий перезагрузки при изменении.
type Profile struct {
	Spoiler bool
	Start   int
	Thumb   bool
}

// ProfileOf возвращает профиль для набора параметров; признак превью учитывается
// только при включенном контроле превью.
func ProfileOf(e *Extra, thumbguard bool) Profile {
	if e == nil {
		return Profile{}
	}
	p := Profile{Spoiler: e.Spoiler, Start: e.Start}
	if thumbguard {
		p.Thumb = e.Thumb
	}
	return p
}

// TextLength возвращает длину строки в UTF-16 кодовых единицах.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ValidEntities отбрасывает сущности, выходящие за границы текста длиной length
// или имеющие неизвестный тип.
func ValidEntities(entities []Entity, length int) []Entity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if _, ok := EntityTypes[e.Type]; !ok {
			continue
		}
		if e.Offset < 0 || e.Length < 1 || e.Offset+e.Length > length {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
