// Package canvas manages the free-form elements of CanvasEditor sections.
package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var ErrUnknownElement = errors.New("unknown element type")

// Element types a canvas accepts.
const (
	Heading   = "heading"
	Paragraph = "paragraph"
	Image     = "image"
	Button    = "button"
	Link      = "link"
	Div       = "div"
)

var elementTypes = []string{Heading, Paragraph, Image, Button, Link, Div}

func ElementTypes() []string { return slices.Clone(elementTypes) }

type Style struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BorderRadius    float64 `json:"borderRadius"`
	Padding         float64 `json:"padding"`
	TextAlign       string  `json:"textAlign,omitempty"`
	ZIndex          float64 `json:"zIndex,omitempty"`
}

// Element is one absolutely positioned item on a canvas.
type Element struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Style   Style  `json:"style"`
	Href    string `json:"href,omitempty"`
	Src     string `json:"src,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// NewElement returns an element of kind with its default content and size.
// Position is left at the origin; callers place it with an Engine.
func NewElement(kind string) (Element, error) {
	if !slices.Contains(elementTypes, kind) {
		return Element{}, fmt.Errorf("%w: %q", ErrUnknownElement, kind)
	}
	w, h := defaultSize(kind)
	e := Element{
		ID:      uuid.NewString(),
		Type:    kind,
		Content: defaultContent(kind),
		Style: Style{
			Width:           w,
			Height:          h,
			FontSize:        16,
			FontWeight:      "normal",
			Color:           "#000000",
			BackgroundColor: "transparent",
			TextAlign:       "left",
			ZIndex:          1,
		},
	}
	switch kind {
	case Div:
		e.Style.BackgroundColor = "#f3f4f6"
	case Link:
		e.Href = "#"
	case Image:
		e.Src = "/assets/images/placeholder.jpg"
		e.Alt = "Canvas image"
	}
	return e, nil
}

func defaultContent(kind string) string {
	switch kind {
	case Heading:
		return "عنوان جدید"
	case Paragraph:
		return "متن پاراگراف جدید"
	case Button:
		return "دکمه"
	case Link:
		return "لینک"
	}
	return ""
}

func defaultSize(kind string) (w, h float64) {
	switch kind {
	case Heading:
		return 200, 50
	case Paragraph:
		return 200, 100
	case Button:
		return 120, 40
	case Link:
		return 100, 30
	case Image:
		return 200, 150
	case Div:
		return 300, 200
	}
	return 100, 50
}

// Decode reads the "elements" list out of a section's blocks. A missing list
// yields no elements.
func Decode(blocks map[string]any) ([]Element, error) {
	raw, ok := blocks["elements"]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal elements: %w", err)
	}
	var out []Element
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return out, nil
}

// Encode converts elements back to the generic JSON shape stored in blocks.
func Encode(elements []Element) ([]any, error) {
	data, err := json.Marshal(elements)
	if err != nil {
		return nil, fmt.Errorf("marshal elements: %w", err)
	}
	var out []any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode elements: %w", err)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}
