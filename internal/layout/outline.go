package layout

import "sitebuilder/internal/domain"

// Components is the preview's name -> component table.
var Components = map[string]bool{
	"Header":       true,
	"RichText":     true,
	"Banner":       true,
	"ImageText":    true,
	"Video":        true,
	"ContactForm":  true,
	"NewsLetter":   true,
	"CollapseFaq":  true,
	"MultiColumn":  true,
	"SlideShow":    true,
	"MultiRow":     true,
	"ProductList":  true,
	"DetailPage":   true,
	"BlogList":     true,
	"BlogDetail":   true,
	"SpecialOffer": true,
	"Story":        true,
	"Gallery":      true,
	"SlideBanner":  true,
	"OfferRow":     true,
	"Brands":       true,
	"ProductsRow":  true,
	"CanvasEditor": true,
	"Footer":       true,
}

// OutlineEntry is one rendered slot of the preview.
type OutlineEntry struct {
	ID        string `json:"id"`
	Component string `json:"component"`
	Position  int    `json:"position"`
}

// Outline lists what the preview renders, in order: the header, each ordered
// body section whose base name is a known component and whose data exists,
// then the footer. Everything else is skipped.
func Outline(l *domain.Layout) []OutlineEntry {
	if l == nil {
		return nil
	}
	var out []OutlineEntry
	add := func(id, component string) {
		out = append(out, OutlineEntry{ID: id, Component: component, Position: len(out)})
	}

	if l.Sections.SectionHeader != nil {
		add(domain.SectionHeaderKey, "Header")
	}
	present := make(map[string]bool, len(l.Sections.Children.Sections))
	for _, s := range l.Sections.Children.Sections {
		present[s.Type] = true
	}
	for _, id := range l.Sections.Children.Order {
		base := BaseName(id)
		if !Components[base] || !present[id] {
			continue
		}
		add(id, base)
	}
	if l.Sections.SectionFooter != nil {
		add(domain.SectionFooterKey, "Footer")
	}
	return out
}
