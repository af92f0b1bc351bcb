package domain

// Preview — параметры предпросмотра ссылки.
type Preview struct {
	URL      string `json:"url,omitempty"`
	Small    bool   `json:"small"`
	Large    bool   `json:"large"`
	Above    bool   `json:"above"`
	Disabled *bool  `json:"disabled,omitempty"`
}

// Clone возвращает копию параметров предпросмотра.
func (p *Preview) Clone() *Preview {
	if p == nil {
		return nil
	}
	c := *p
	if p.Disabled != nil {
		d := *p.Disabled
		c.Disabled = &d
	}
	return &c
}

// PreviewEqual структурно сравнивает параметры предпросмотра.
func PreviewEqual(a, b *Preview) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.URL != b.URL || a.Small != b.Small || a.Large != b.Large || a.Above != b.Above {
		return false
	}
	if a.Disabled == nil || b.Disabled == nil {
		return a.Disabled == nil && b.Disabled == nil
	}
	return *a.Disabled == *b.Disabled
}
