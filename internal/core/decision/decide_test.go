package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telegram-navigator/internal/domain"
)

func kb(label string) *domain.Markup {
	return &domain.Markup{Kind: domain.MarkupInlineKeyboard, Data: map[string]any{
		"inline_keyboard": []any{[]any{map[string]any{"text": label, "callback_data": label}}},
	}}
}

func photoMsg(id int, path, caption string) *domain.Message {
	return &domain.Message{ID: id, Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: path, Caption: caption}}
}

func TestDecide(t *testing.T) {
	policy := Policy{}

	testCases := []struct {
		name  string
		old   *domain.Message
		fresh domain.Payload
		want  domain.Decision
	}{
		{"no previous message", nil, domain.TextPayload("a"), domain.Resend},
		{"text to media", &domain.Message{ID: 1, Text: "t"}, domain.MediaPayload(domain.Photo("x")), domain.DeleteSend},
		{"media to text", photoMsg(1, "x", ""), domain.TextPayload("t"), domain.DeleteSend},
		{"group fresh", &domain.Message{ID: 1, Text: "t"}, domain.GroupPayload(domain.Photo("a"), domain.Photo("b")), domain.DeleteSend},
		{"group stored", &domain.Message{ID: 1, Group: []domain.MediaItem{domain.Photo("a"), domain.Photo("b")}}, domain.MediaPayload(domain.Photo("a")), domain.DeleteSend},
		{"voice always resent", &domain.Message{ID: 1, Media: &domain.MediaItem{Type: domain.MediaVoice, Path: "v"}}, domain.MediaPayload(domain.MediaItem{Type: domain.MediaVoice, Path: "v"}), domain.DeleteSend},
		{"same text", &domain.Message{ID: 1, Text: "t"}, domain.TextPayload("t"), domain.NoChange},
		{"different text", &domain.Message{ID: 1, Text: "t"}, domain.TextPayload("u"), domain.EditText},
		{"same text new entities", &domain.Message{ID: 1, Text: "t"}, domain.Payload{Text: domain.Str("t"), Extra: &domain.Extra{Mode: "HTML"}}, domain.EditText},
		{"same text new preview", &domain.Message{ID: 1, Text: "t"}, domain.Payload{Text: domain.Str("t"), Preview: &domain.Preview{URL: "https://x"}}, domain.EditText},
		{"same text new markup", &domain.Message{ID: 1, Text: "t"}, domain.Payload{Text: domain.Str("t"), Reply: kb("a")}, domain.EditMarkup},
		{"same media", photoMsg(1, "x", "c"), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "x"}, Text: domain.Str("c")}, domain.NoChange},
		{"new media path", photoMsg(1, "x", "c"), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "y"}, Text: domain.Str("c")}, domain.EditMedia},
		{"new media type", photoMsg(1, "x", ""), domain.MediaPayload(domain.MediaItem{Type: domain.MediaVideo, Path: "x"}), domain.EditMedia},
		{"spoiler toggled", photoMsg(1, "x", ""), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "x"}, Extra: &domain.Extra{Spoiler: true}}, domain.EditMedia},
		{"caption changed", photoMsg(1, "x", "c"), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "x"}, Text: domain.Str("d")}, domain.EditMediaCaption},
		{"caption erased", photoMsg(1, "x", "c"), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "x"}, Text: domain.Str(""), Erase: true}, domain.EditMediaCaption},
		{"caption above toggled", photoMsg(1, "x", "c"), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "x"}, Text: domain.Str("c"), Extra: &domain.Extra{Above: true}}, domain.EditMediaCaption},
		{"media markup changed", photoMsg(1, "x", "c"), domain.Payload{Media: &domain.MediaItem{Type: domain.MediaPhoto, Path: "x"}, Text: domain.Str("c"), Reply: kb("a")}, domain.EditMarkup},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.old, tc.fresh, policy), tc.want.String())
		})
	}
}

func TestDecide_ThumbGuard(t *testing.T) {
	old := &domain.Message{ID: 1, Media: &domain.MediaItem{Type: domain.MediaVideo, Path: "v"}}
	fresh := domain.Payload{Media: &domain.MediaItem{Type: domain.MediaVideo, Path: "v"}, Extra: &domain.Extra{Thumb: true}}

	assert.Equal(t, domain.NoChange, Decide(old, fresh, Policy{}))
	assert.Equal(t, domain.EditMedia, Decide(old, fresh, Policy{ThumbGuard: true}))
}

type prefixIdentity struct{}

func (prefixIdentity) Same(old, fresh string, _ domain.MediaType) bool {
	return len(old) >= 3 && len(fresh) >= 3 && old[:3] == fresh[:3]
}

func TestDecide_IdentityPolicy(t *testing.T) {
	old := photoMsg(1, "abc-remote-id", "")
	fresh := domain.MediaPayload(domain.Photo("abc-local"))

	assert.Equal(t, domain.EditMedia, Decide(old, fresh, Policy{Identity: ExactIdentity{}}))
	assert.Equal(t, domain.NoChange, Decide(old, fresh, Policy{Identity: prefixIdentity{}}))
}

func TestDecide_StoredMessageAsPayloadIsNoChange(t *testing.T) {
	messages := []*domain.Message{
		{ID: 1, Text: "hello", Markup: kb("a"), Preview: &domain.Preview{URL: "https://x", Small: true}, Extra: &domain.Extra{Mode: "HTML"}},
		{ID: 2, Media: &domain.MediaItem{Type: domain.MediaDocument, Path: "d", Caption: "doc"}, Markup: kb("b"), Extra: &domain.Extra{Spoiler: true}},
	}
	for _, m := range messages {
		p := domain.Payload{Reply: m.Markup, Preview: m.Preview, Extra: m.Extra}
		if m.Media != nil {
			media := *m.Media
			p.Media = &media
			p.Text = domain.Str(m.Media.Caption)
		} else {
			p.Text = domain.Str(m.Text)
		}
		assert.Equal(t, domain.NoChange, Decide(m, p, Policy{ThumbGuard: true}))
	}
}
