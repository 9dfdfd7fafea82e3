package layout

import "sitebuilder/internal/domain"

// Clone returns a deep copy of l. Values inside Setting and Blocks are copied
// recursively for the JSON shapes (maps, slices, scalars).
func Clone(l *domain.Layout) *domain.Layout {
	if l == nil {
		return nil
	}
	out := &domain.Layout{
		Type:  l.Type,
		Order: cloneStrings(l.Order),
	}
	if l.Settings != nil {
		s := *l.Settings
		if l.Settings.ColorSchema != nil {
			cs := *l.Settings.ColorSchema
			s.ColorSchema = &cs
		}
		out.Settings = &s
	}
	out.Sections.SectionHeader = cloneSectionPtr(l.Sections.SectionHeader)
	out.Sections.SectionFooter = cloneSectionPtr(l.Sections.SectionFooter)

	ch := l.Sections.Children
	out.Sections.Children = domain.Children{
		Type:     ch.Type,
		Sections: make([]domain.Section, 0, len(ch.Sections)),
		Order:    make([]string, 0, len(ch.Order)),
	}
	if ch.MetaData != nil {
		md := *ch.MetaData
		out.Sections.Children.MetaData = &md
	}
	for _, s := range ch.Sections {
		out.Sections.Children.Sections = append(out.Sections.Children.Sections, CloneSection(s))
	}
	out.Sections.Children.Order = append(out.Sections.Children.Order, ch.Order...)
	return out
}

// CloneSection returns a deep copy of s.
func CloneSection(s domain.Section) domain.Section {
	return domain.Section{
		Type:    s.Type,
		Setting: cloneMap(s.Setting),
		Blocks:  cloneMap(s.Blocks),
	}
}

func cloneSectionPtr(s *domain.Section) *domain.Section {
	if s == nil {
		return nil
	}
	c := CloneSection(*s)
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	default:
		return v
	}
}
