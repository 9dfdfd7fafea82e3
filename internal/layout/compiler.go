package layout

import (
	"strings"

	"sitebuilder/internal/domain"
)

// BaseName returns the section name an identifier was created from: the
// part before the first "-" ("Banner-1a2b3c4d" -> "Banner").
func BaseName(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

// Compile resolves name against l and returns the matching sections.
//
// "sectionHeader" and "sectionFooter" return the singletons. Otherwise the
// body sections whose Type equals name win; when there are none, the body
// sections whose BaseName equals name are returned. Callers normally use the
// first element. The returned sections alias l; clone before mutating.
func Compile(l *domain.Layout, name string) []domain.Section {
	if l == nil || name == "" {
		return nil
	}
	switch name {
	case domain.SectionHeaderKey:
		if l.Sections.SectionHeader != nil {
			return []domain.Section{*l.Sections.SectionHeader}
		}
		return nil
	case domain.SectionFooterKey:
		if l.Sections.SectionFooter != nil {
			return []domain.Section{*l.Sections.SectionFooter}
		}
		return nil
	}

	var exact, byBase []domain.Section
	for _, s := range l.Sections.Children.Sections {
		switch {
		case s.Type == name:
			exact = append(exact, s)
		case BaseName(s.Type) == name:
			byBase = append(byBase, s)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return byBase
}

// TemplateSource resolves a section name to the template a new section is
// cloned from.
type TemplateSource interface {
	Template(name string) (domain.Section, bool)
}

// LayoutTemplates serves templates out of a template layout through Compile.
type LayoutTemplates struct {
	Layout *domain.Layout
}

func (t LayoutTemplates) Template(name string) (domain.Section, bool) {
	found := Compile(t.Layout, name)
	if len(found) == 0 {
		return domain.Section{}, false
	}
	return found[0], true
}
