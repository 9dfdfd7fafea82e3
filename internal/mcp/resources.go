package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
)

const (
	routesURI       = "sitebuilder://routes"
	layoutURIPrefix = "sitebuilder://layout/"
)

func (s *Server) registerResources() {
	// ── sitebuilder://routes ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		routesURI,
		"All Routes",
		mcp.WithMIMEType("application/json"),
	), s.handleRoutesResource)

	// ── sitebuilder://layout/{route} ───────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			layoutURIPrefix+"{route}",
			"Desktop Layout of a Route",
		),
		s.handleLayoutResource,
	)
}

func (s *Server) handleRoutesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	routes, err := s.layouts.ListRoutes(ctx, s.storeID)
	if err != nil {
		return nil, err
	}
	return jsonContents(routesURI, routes)
}

func (s *Server) handleLayoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	route := routeFromURI(uri)
	if route == "" {
		return nil, fmt.Errorf("could not extract route from URI: %s", uri)
	}
	l, err := s.layouts.GetLayout(ctx, domain.DocKey{StoreID: s.storeID, Route: route, Mode: domain.ModeLarge})
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, l)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// routeFromURI extracts the route from "sitebuilder://layout/{route}".
func routeFromURI(uri string) string {
	route, ok := strings.CutPrefix(uri, layoutURIPrefix)
	if !ok || strings.Contains(route, "/") {
		return ""
	}
	return route
}
