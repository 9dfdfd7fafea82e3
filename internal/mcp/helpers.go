package mcpserver

import (
	"encoding/json"
	"slices"
	"strings"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
)

// marshalJSON serializes a value to a JSON string for metadata fields.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func sortActions(actions []domain.PendingAction) {
	slices.SortFunc(actions, func(a, b domain.PendingAction) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// sectionOf returns section id of l, or nil when it is gone.
func sectionOf(l *domain.Layout, id string) any {
	if s, ok := layout.Section(l, id); ok {
		return s
	}
	return nil
}
