package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
)

func (s *Server) registerRouteTools() {
	// ── list_routes ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List all page routes of the store"),
		mcp.WithString("storeId", mcp.Description("Store ID (optional, defaults to the configured store)")),
	), s.handleListRoutes)

	// ── create_route ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_route",
		mcp.WithDescription("Create a new page route with an empty layout for both display modes"),
		mcp.WithString("route", mcp.Description("Route name, e.g. about"), mcp.Required()),
	), s.handleCreateRoute)

	// ── delete_route (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_route",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a route, both of its layouts and their history."),
		mcp.WithString("route", mcp.Description("Route name"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteRoute)

	// ── set_active_route ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_route",
		mcp.WithDescription("Set the route and display mode used by later tool calls that omit them"),
		mcp.WithString("route", mcp.Description("Route name"), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Display mode: lg (desktop, default) or sm (mobile)")),
	), s.handleSetActiveRoute)
}

func (s *Server) handleListRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := s.docKey(req.GetArguments())
	if err != nil {
		return nil, err
	}
	routes, err := s.layouts.ListRoutes(ctx, key.StoreID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return jsonResult(routes)
}

func (s *Server) handleCreateRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	route, err := stringArg(args, "route")
	if err != nil {
		return nil, err
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	doc, err := s.layouts.CreateRoute(ctx, key.StoreID, route)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	// Auto-set as active route
	s.mu.Lock()
	s.activeRoute = route
	s.mu.Unlock()
	return jsonResult(doc)
}

func (s *Server) handleDeleteRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	route, err := stringArg(args, "route")
	if err != nil {
		return nil, err
	}
	if route == domain.HomeRoute {
		return nil, fmt.Errorf("the home route cannot be deleted")
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	if err := s.confirm(ctx, "delete_route", fmt.Sprintf("Delete route %q", route), map[string]string{"route": route}); err != nil {
		return nil, err
	}
	if err := s.layouts.DeleteRoute(ctx, key.StoreID, route); err != nil {
		return nil, fmt.Errorf("delete route: %w", err)
	}

	s.mu.Lock()
	if s.activeRoute == route {
		s.activeRoute = domain.HomeRoute
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Route %s deleted", route)), nil
}

func (s *Server) handleSetActiveRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	route := req.GetString("route", "")
	if route == "" {
		return nil, fmt.Errorf("route is required")
	}
	mode, err := domain.ParseMode(req.GetString("mode", ""))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.activeRoute = route
	s.activeMode = mode
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Active route set to %s (%s)", route, mode)), nil
}
