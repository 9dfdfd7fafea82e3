package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sitebuilder/internal/domain"
)

var ErrInvalidPath = errors.New("invalid field path")

// Patch sets the field at path inside the section id and returns the new
// layout. path is dotted and rooted at "setting" or "blocks", e.g.
// "blocks.heading", "setting.paddingTop" or "blocks.slides.0.title".
// Missing intermediate objects are created; slice indexes must exist.
// A nil value removes the field.
//
// id may also be "sectionHeader" or "sectionFooter".
func Patch(l *domain.Layout, id, path string, value any) (*domain.Layout, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || (parts[0] != "setting" && parts[0] != "blocks") {
		return nil, fmt.Errorf("%w: %q must start with setting. or blocks.", ErrInvalidPath, path)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}

	out := Clone(l)
	s := sectionRef(out, id)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}

	var root map[string]any
	if parts[0] == "setting" {
		if s.Setting == nil {
			s.Setting = map[string]any{}
		}
		root = s.Setting
	} else {
		if s.Blocks == nil {
			s.Blocks = map[string]any{}
		}
		root = s.Blocks
	}
	if err := setPath(root, parts[1:], cloneValue(value)); err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return out, nil
}

// MergeSetting overlays updates onto the section's setting map.
func MergeSetting(l *domain.Layout, id string, updates map[string]any) (*domain.Layout, error) {
	out := Clone(l)
	s := sectionRef(out, id)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if s.Setting == nil {
		s.Setting = map[string]any{}
	}
	for k, v := range updates {
		s.Setting[k] = cloneValue(v)
	}
	return out, nil
}

// Section returns a copy of the section id.
func Section(l *domain.Layout, id string) (domain.Section, bool) {
	if l == nil {
		return domain.Section{}, false
	}
	s := sectionRef(l, id)
	if s == nil {
		return domain.Section{}, false
	}
	return CloneSection(*s), true
}

func sectionRef(l *domain.Layout, id string) *domain.Section {
	switch id {
	case domain.SectionHeaderKey:
		return l.Sections.SectionHeader
	case domain.SectionFooterKey:
		return l.Sections.SectionFooter
	}
	for i := range l.Sections.Children.Sections {
		if l.Sections.Children.Sections[i].Type == id {
			return &l.Sections.Children.Sections[i]
		}
	}
	return nil
}

func setPath(m map[string]any, parts []string, value any) error {
	key := parts[0]
	if len(parts) == 1 {
		if value == nil {
			delete(m, key)
		} else {
			m[key] = value
		}
		return nil
	}
	next, ok := m[key]
	if !ok || next == nil {
		if value == nil {
			return nil
		}
		child := map[string]any{}
		m[key] = child
		return setPath(child, parts[1:], value)
	}
	return setIn(next, parts[1:], value)
}

func setIn(container any, parts []string, value any) error {
	switch c := container.(type) {
	case map[string]any:
		return setPath(c, parts, value)
	case []any:
		idx, err := strconv.Atoi(parts[0])
		if err != nil || idx < 0 || idx >= len(c) {
			return fmt.Errorf("%w: index %q out of range", ErrInvalidPath, parts[0])
		}
		if len(parts) == 1 {
			if value == nil {
				return fmt.Errorf("%w: cannot remove a list element by patch", ErrInvalidPath)
			}
			c[idx] = value
			return nil
		}
		return setIn(c[idx], parts[1:], value)
	default:
		return fmt.Errorf("%w: %q is not an object or list", ErrInvalidPath, parts[0])
	}
}
