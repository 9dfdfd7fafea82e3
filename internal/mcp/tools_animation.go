package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/animation"
)

func (s *Server) registerAnimationTools() {
	// ── list_animations ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_animations",
		mcp.WithDescription("List the animation types, their defaults, timing functions and effect triggers"),
	), s.handleListAnimations)

	// ── animation_css ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("animation_css",
		mcp.WithDescription("Validate an animation and render it as CSS. Missing fields use the type's defaults."),
		mcp.WithString("type", mcp.Description("Animation type, e.g. pulse"), mcp.Required()),
		mcp.WithString("duration", mcp.Description("Duration such as 0.5s")),
		mcp.WithString("timing", mcp.Description("Timing function or cubic-bezier(...)")),
		mcp.WithString("delay", mcp.Description("Delay such as 0s")),
		mcp.WithString("iterationCount", mcp.Description("A positive number or infinite")),
		mcp.WithString("effect", mcp.Description("Wrap in a hover or click rule (optional)")),
	), s.handleAnimationCSS)
}

func (s *Server) handleListAnimations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"animations":      animation.Catalog(),
		"timingFunctions": animation.TimingFunctions(),
		"effects":         animation.EffectTypes(),
	})
}

func (s *Server) handleAnimationCSS(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	if typ == "" {
		return nil, fmt.Errorf("type is required")
	}
	c := animation.DefaultConfig(typ)
	c.Type = typ
	if v := req.GetString("duration", ""); v != "" {
		c.Duration = v
	}
	if v := req.GetString("timing", ""); v != "" {
		c.Timing = v
	}
	if v := req.GetString("delay", ""); v != "" {
		c.Delay = v
	}
	if v := req.GetString("iterationCount", ""); v != "" {
		c.IterationCount = v
	}

	if effect := req.GetString("effect", ""); effect != "" {
		e := animation.Effect{Type: effect, Animation: c}
		if err := animation.ValidateEffect(e); err != nil {
			return nil, err
		}
		return textResult(animation.EffectCSS(e)), nil
	}
	if err := animation.Validate(c); err != nil {
		return nil, err
	}
	return textResult(animation.CSS(c)), nil
}
