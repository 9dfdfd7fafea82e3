package layout

import (
	"fmt"

	"sitebuilder/internal/domain"
)

// Move places id at position index of the display order. index is clamped
// to the valid range.
func Move(l *domain.Layout, id string, index int) (*domain.Layout, error) {
	out := Clone(l)
	if out == nil {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	order := out.Sections.Children.Order
	from := -1
	for i, o := range order {
		if o == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}

	order = append(order[:from], order[from+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(order) {
		index = len(order)
	}
	order = append(order, "")
	copy(order[index+1:], order[index:])
	order[index] = id
	out.Sections.Children.Order = order
	return out, nil
}
