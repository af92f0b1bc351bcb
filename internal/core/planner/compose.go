package planner

import (
	"fmt"
	"strings"
	"time"

	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
)

// Compose строит сохраняемые сообщения по результату отрисовки.
func Compose(node *RenderNode, now time.Time) ([]domain.Message, error) {
	return Reindex(node, nil, now)
}

// Reindex строит сообщения нового хвоста: сохраненные без изменений слоты
// копируются из target с идентификаторами из отрисовки, остальные собираются
// из подтверждений транспорта.
func Reindex(node *RenderNode, target []domain.Message, now time.Time) ([]domain.Message, error) {
	if node == nil {
		return nil, nil
	}
	out := make([]domain.Message, 0, len(node.Slots))
	for _, slot := range node.Slots {
		switch slot.Outcome {
		case Omitted:
			continue
		case Retained:
			var msg domain.Message
			switch {
			case slot.Index < len(target):
				msg = target[slot.Index].Clone()
			case slot.Stored != nil:
				msg = slot.Stored.Clone()
			default:
				return nil, fmt.Errorf("slot %d: %w", slot.Index, domain.ErrMetadataKindMissing)
			}
			msg.ID = slot.ID
			msg.Extras = nil
			if msg.IsGroup() {
				msg.Extras = append([]int(nil), slot.Extras...)
			}
			out = append(out, msg)
		default:
			msg, err := compose(slot, now)
			if err != nil {
				return nil, fmt.Errorf("slot %d: %w", slot.Index, err)
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

func compose(slot Slot, now time.Time) (domain.Message, error) {
	p := slot.Payload
	msg := domain.Message{
		ID:     slot.ID,
		Markup: p.Reply.Clone(),
		Extra:  p.Extra.Clone(),
		TS:     now.UTC(),
	}
	if slot.Meta == nil {
		return msg, domain.ErrMetadataKindMissing
	}
	msg.Inline = slot.Meta.InlineID()

	switch m := slot.Meta.(type) {
	case domain.TextMeta:
		msg.Text = m.Text
		if msg.Text == "" {
			msg.Text = p.TextValue()
		}
		msg.Preview = p.Preview.Clone()

	case domain.MediaMeta:
		if m.Medium == "" {
			return msg, domain.ErrMetadataMediumMissing
		}
		item := domain.MediaItem{Type: m.Medium, Path: m.File, Caption: captionOf(m.Caption, p)}
		if p.Media != nil {
			item.Extra = p.Media.Extra.Clone()
			if item.Path == "" {
				item.Path = p.Media.Path
			}
		}
		msg.Media = &item

	case domain.GroupMeta:
		if len(m.Clusters) == 0 {
			return msg, domain.ErrMetadataKindMissing
		}
		msg.Group = make([]domain.MediaItem, len(m.Clusters))
		for i, cluster := range m.Clusters {
			if cluster.Medium == "" {
				return msg, fmt.Errorf("%w: item %d", domain.ErrMetadataGroupMediumMissing, i)
			}
			item := domain.MediaItem{Type: cluster.Medium, Path: cluster.File}
			if cluster.Caption != nil {
				item.Caption = strings.TrimSpace(*cluster.Caption)
			}
			if i < len(p.Group) {
				item.Extra = p.Group[i].Extra.Clone()
				if item.Path == "" {
					item.Path = p.Group[i].Path
				}
			}
			msg.Group[i] = item
		}
		msg.Extras = append([]int(nil), slot.Extras...)

	default:
		return msg, fmt.Errorf("%w: %T", domain.ErrMetadataKindUnsupported, slot.Meta)
	}
	return msg, nil
}

func captionOf(echoed *string, p domain.Payload) string {
	if echoed != nil {
		return strings.TrimSpace(*echoed)
	}
	caption, _ := payload.Caption(p)
	return caption
}
