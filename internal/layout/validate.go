package layout

import (
	"errors"
	"fmt"

	"sitebuilder/internal/domain"
)

var ErrInvariant = errors.New("layout invariant violated")

// Validate reports every broken invariant of l: empty or duplicate section
// types, duplicate order entries, and identifiers present in only one of the
// section list and the order list.
func Validate(l *domain.Layout) error {
	if l == nil {
		return fmt.Errorf("%w: nil layout", ErrInvariant)
	}
	var errs []error
	ch := l.Sections.Children

	types := make(map[string]int, len(ch.Sections))
	for i, s := range ch.Sections {
		if s.Type == "" {
			errs = append(errs, fmt.Errorf("%w: section %d has no type", ErrInvariant, i))
			continue
		}
		types[s.Type]++
		if types[s.Type] == 2 {
			errs = append(errs, fmt.Errorf("%w: duplicate section type %q", ErrInvariant, s.Type))
		}
	}

	seen := make(map[string]bool, len(ch.Order))
	for _, id := range ch.Order {
		if seen[id] {
			errs = append(errs, fmt.Errorf("%w: duplicate order entry %q", ErrInvariant, id))
			continue
		}
		seen[id] = true
		if types[id] == 0 {
			errs = append(errs, fmt.Errorf("%w: order entry %q has no section", ErrInvariant, id))
		}
	}
	for _, s := range ch.Sections {
		if s.Type != "" && !seen[s.Type] {
			errs = append(errs, fmt.Errorf("%w: section %q missing from order", ErrInvariant, s.Type))
			seen[s.Type] = true
		}
	}
	return errors.Join(errs...)
}
