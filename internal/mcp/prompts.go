package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("compose_page",
		mcp.WithPromptDescription("Guide through building a page from section templates"),
		mcp.WithArgument("route",
			mcp.ArgumentDescription("Route to build, e.g. home or about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the page should achieve"),
			mcp.RequiredArgument(),
		),
	), s.handleComposePagePrompt)
}

func (s *Server) handleComposePagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	route := req.Params.Arguments["route"]
	goal := req.Params.Arguments["goal"]
	templates := strings.Join(s.layouts.Templates(), ", ")
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Compose the %s page", route),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build the "%s" page of the store. Goal: %s

1. Call set_active_route with route "%s". If list_routes does not include it, call create_route first.
2. Read the current layout with get_outline so you do not duplicate sections.
3. Add sections with create_section. Available templates: %s.
4. Fill in texts and images with patch_section (paths like blocks.heading or blocks.description).
5. Adjust spacing with apply_style, using Persian instructions such as "فاصله از بالا را به 20 پیکسل بذار".
6. Reorder with move_section until the page reads top to bottom: hero first, call to action last.

Do the same for mode "sm" if the mobile layout should differ.`, route, goal, route, templates),
				},
			},
		},
	}, nil
}
