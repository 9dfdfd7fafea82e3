package canvas

import (
	"errors"
	"fmt"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
)

var ErrNotCanvas = errors.New("section is not a canvas")

// AddElement appends a new element of kind to the canvas section id, placed
// at the first free grid position. content replaces the default text when
// not empty.
func AddElement(l *domain.Layout, id, kind, content string) (*domain.Layout, Element, error) {
	if layout.BaseName(id) != layout.CanvasEditorName {
		return nil, Element{}, fmt.Errorf("%w: %s", ErrNotCanvas, id)
	}
	s, ok := layout.Section(l, id)
	if !ok {
		return nil, Element{}, fmt.Errorf("%w: %s", layout.ErrSectionNotFound, id)
	}

	existing, err := Decode(s.Blocks)
	if err != nil {
		return nil, Element{}, err
	}
	el, err := NewElement(kind)
	if err != nil {
		return nil, Element{}, err
	}
	if content != "" {
		el.Content = content
	}

	engine := NewEngine(gridSize(s.Blocks))
	el.Style.X, el.Style.Y = engine.NextPosition(existing, el.Style.Width, el.Style.Height)

	encoded, err := Encode(append(existing, el))
	if err != nil {
		return nil, Element{}, err
	}
	out, err := layout.Patch(l, id, "blocks.elements", encoded)
	if err != nil {
		return nil, Element{}, err
	}
	return out, el, nil
}

func gridSize(blocks map[string]any) float64 {
	setting, _ := blocks["setting"].(map[string]any)
	switch g := setting["gridSize"].(type) {
	case float64:
		return g
	case int:
		return float64(g)
	}
	return DefaultGridSize
}
