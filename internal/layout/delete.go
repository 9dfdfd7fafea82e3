package layout

import "sitebuilder/internal/domain"

// Delete returns a copy of l without any section whose Type is id and
// without id in the order list. An unknown id yields an unchanged copy.
func Delete(l *domain.Layout, id string) *domain.Layout {
	out := Clone(l)
	if out == nil {
		return domain.EmptyLayout()
	}
	ch := &out.Sections.Children

	sections := ch.Sections[:0]
	for _, s := range ch.Sections {
		if s.Type != id {
			sections = append(sections, s)
		}
	}
	ch.Sections = sections

	order := ch.Order[:0]
	for _, o := range ch.Order {
		if o != id {
			order = append(order, o)
		}
	}
	ch.Order = order
	return out
}
