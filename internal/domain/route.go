package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRouteExists = errors.New("route already exists")
	ErrInvalidMode = errors.New("invalid mode")
)

// Mode selects the large (desktop) or small (mobile) variant of a route.
type Mode string

const (
	ModeLarge Mode = "lg"
	ModeSmall Mode = "sm"
)

// ParseMode validates a mode string. An empty string means ModeLarge.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLarge:
		return ModeLarge, nil
	case ModeSmall:
		return ModeSmall, nil
	default:
		return "", fmt.Errorf("%w: %q (want lg or sm)", ErrInvalidMode, s)
	}
}

// DocumentVersion is written to every new route document.
const DocumentVersion = "1"

// RouteDocument is the persisted unit: one route of one store, with a layout
// per display mode.
type RouteDocument struct {
	StoreID   string    `json:"storeId"`
	Route     string    `json:"route"`
	LgContent *Layout   `json:"lgContent"`
	SmContent *Layout   `json:"smContent"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Content returns the layout for the given mode.
func (d *RouteDocument) Content(mode Mode) *Layout {
	if mode == ModeSmall {
		return d.SmContent
	}
	return d.LgContent
}

// DocKey identifies one mode of one route; history is kept per key.
type DocKey struct {
	StoreID string `json:"storeId"`
	Route   string `json:"route"`
	Mode    Mode   `json:"mode"`
}

func (k DocKey) String() string {
	return k.StoreID + "/" + k.Route + "/" + string(k.Mode)
}

// RouteStore persists route documents.
type RouteStore interface {
	ListRoutes(ctx context.Context, storeID string) ([]string, error)
	GetRoute(ctx context.Context, storeID, route string) (*RouteDocument, error)
	// CreateRoute stores a new document whose lg and sm content are both
	// NewRouteLayout(route). Returns ErrRouteExists on conflict.
	CreateRoute(ctx context.Context, storeID, route string) (*RouteDocument, error)
	// SaveLayout replaces one mode of a route, creating the document (with an
	// empty layout for the other mode) when it does not exist yet.
	SaveLayout(ctx context.Context, storeID, route string, mode Mode, l *Layout) error
	DeleteRoute(ctx context.Context, storeID, route string) error
	Close() error
}
