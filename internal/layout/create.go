package layout

import (
	"errors"

	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrSectionNotFound  = errors.New("section not found")
)

// IDGenerator returns the unique suffix appended to a section name.
type IDGenerator func() string

// ShortID is the default IDGenerator: the first 8 hex characters of a v4 UUID.
func ShortID() string {
	return uuid.NewString()[:8]
}

// defaultBlocks are present on every created section unless the template
// overrides them.
func defaultBlocks() map[string]any {
	return map[string]any{
		"imageSrc":    "",
		"imageAlt":    "",
		"heading":     "",
		"description": "",
	}
}

// Create appends a new section cloned from the template for sectionName.
// The identifier is "{sectionName}-{id}". When no template resolves, Create
// returns l itself together with ErrTemplateNotFound and nothing is added.
func Create(l *domain.Layout, sectionName string, templates TemplateSource, newID IDGenerator) (*domain.Layout, string, error) {
	if newID == nil {
		newID = ShortID
	}
	if sectionName == CanvasEditorName {
		return CreateCanvas(l, newID)
	}
	if templates == nil {
		return l, "", ErrTemplateNotFound
	}
	tpl, ok := templates.Template(sectionName)
	if !ok {
		return l, "", ErrTemplateNotFound
	}

	id := sectionName + "-" + newID()
	section := CloneSection(tpl)
	section.Type = id
	blocks := defaultBlocks()
	for k, v := range section.Blocks {
		blocks[k] = v
	}
	section.Blocks = blocks

	return appendSection(l, section), id, nil
}

func appendSection(l *domain.Layout, s domain.Section) *domain.Layout {
	out := Clone(l)
	if out == nil {
		out = domain.EmptyLayout()
	}
	ch := &out.Sections.Children
	ch.Sections = append(ch.Sections, s)
	ch.Order = append(ch.Order, s.Type)
	return out
}
