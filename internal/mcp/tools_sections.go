package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// routeParams are the optional arguments every layout tool accepts.
var routeParams = []mcp.ToolOption{
	mcp.WithString("route", mcp.Description("Route (optional, defaults to the active route)")),
	mcp.WithString("mode", mcp.Description("Display mode lg or sm (optional, defaults to the active mode)")),
}

func withRoute(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts, routeParams...)
}

func (s *Server) registerSectionTools() {
	// ── get_layout ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_layout", withRoute(
		mcp.WithDescription("Return the layout JSON of a route as the preview renders it"),
	)...), s.handleGetLayout)

	// ── get_outline ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_outline", withRoute(
		mcp.WithDescription("List the rendered sections of a route in display order"),
	)...), s.handleGetOutline)

	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the section names create_section accepts"),
	), s.handleListTemplates)

	// ── create_section ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_section", withRoute(
		mcp.WithDescription("Append a section cloned from a template. Returns the new section id."),
		mcp.WithString("name", mcp.Description("Template name, e.g. Banner, RichText, CanvasEditor"), mcp.Required()),
	)...), s.handleCreateSection)

	// ── delete_section (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("delete_section", withRoute(
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a section by id. May require user approval."),
		mcp.WithString("sectionId", mcp.Description("Section id, e.g. Banner-1a2b3c4d"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	)...), s.handleDeleteSection)

	// ── patch_section ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("patch_section", withRoute(
		mcp.WithDescription("Set one field of a section. path starts with setting. or blocks."),
		mcp.WithString("sectionId", mcp.Description("Section id"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Dotted path, e.g. blocks.heading or setting.paddingTop"), mcp.Required()),
		mcp.WithString("value", mcp.Description("New value as JSON; plain text is taken as a string; null removes the field"), mcp.Required()),
	)...), s.handlePatchSection)

	// ── move_section ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_section", withRoute(
		mcp.WithDescription("Move a section to a new position in the display order"),
		mcp.WithString("sectionId", mcp.Description("Section id"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("Zero-based target index"), mcp.Required()),
	)...), s.handleMoveSection)

	// ── apply_style ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("apply_style", withRoute(
		mcp.WithDescription("Apply a Persian style instruction to a section, e.g. \"فاصله از بالا را به 20 پیکسل بذار\""),
		mcp.WithString("sectionId", mcp.Description("Section id"), mcp.Required()),
		mcp.WithString("instruction", mcp.Description("Style instruction"), mcp.Required()),
	)...), s.handleApplyStyle)

	// ── add_canvas_element ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_canvas_element", withRoute(
		mcp.WithDescription("Place a new element on a CanvasEditor section at the first free spot"),
		mcp.WithString("sectionId", mcp.Description("CanvasEditor section id"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Element type: heading, paragraph, image, button, link, div"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Text content (optional)")),
	)...), s.handleAddCanvasElement)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo", withRoute(
		mcp.WithDescription("Restore the previous version of a layout"),
	)...), s.handleUndo)
	s.mcp.AddTool(mcp.NewTool("redo", withRoute(
		mcp.WithDescription("Re-apply the most recently undone version of a layout"),
	)...), s.handleRedo)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := s.docKey(req.GetArguments())
	if err != nil {
		return nil, err
	}
	l, err := s.layouts.GetLayout(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return jsonResult(l)
}

func (s *Server) handleGetOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := s.docKey(req.GetArguments())
	if err != nil {
		return nil, err
	}
	outline, err := s.layouts.Outline(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get outline: %w", err)
	}
	return jsonResult(outline)
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.layouts.Templates())
}

func (s *Server) handleCreateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	_, id, err := s.layouts.CreateSection(ctx, key, name)
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	return jsonResult(map[string]string{"sectionId": id, "route": key.Route, "mode": string(key.Mode)})
}

func (s *Server) handleDeleteSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "sectionId")
	if err != nil {
		return nil, err
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("Delete section %s from %s (%s)", id, key.Route, key.Mode)
	if err := s.confirm(ctx, "delete_section", desc, map[string]string{"sectionId": id, "route": key.Route}); err != nil {
		return nil, err
	}
	if _, err := s.layouts.DeleteSection(ctx, key, id); err != nil {
		return nil, fmt.Errorf("delete section: %w", err)
	}
	return textResult(fmt.Sprintf("Section %s deleted", id)), nil
}

func (s *Server) handlePatchSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "sectionId")
	if err != nil {
		return nil, err
	}
	path, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	raw, _ := args["value"].(string)
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	l, err := s.layouts.PatchSection(ctx, key, id, path, value)
	if err != nil {
		return nil, fmt.Errorf("patch section: %w", err)
	}
	return jsonResult(sectionOf(l, id))
}

func (s *Server) handleMoveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "sectionId")
	if err != nil {
		return nil, err
	}
	index, ok := args["index"].(float64)
	if !ok {
		return nil, fmt.Errorf("index is required")
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	l, err := s.layouts.MoveSection(ctx, key, id, int(index))
	if err != nil {
		return nil, fmt.Errorf("move section: %w", err)
	}
	return jsonResult(l.Sections.Children.Order)
}

func (s *Server) handleApplyStyle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "sectionId")
	if err != nil {
		return nil, err
	}
	instruction, err := stringArg(args, "instruction")
	if err != nil {
		return nil, err
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	_, updates, err := s.layouts.ApplyStyleInstruction(ctx, key, id, instruction)
	if err != nil {
		return nil, fmt.Errorf("apply style: %w", err)
	}
	return jsonResult(updates)
}

func (s *Server) handleAddCanvasElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "sectionId")
	if err != nil {
		return nil, err
	}
	kind, err := stringArg(args, "type")
	if err != nil {
		return nil, err
	}
	key, err := s.docKey(args)
	if err != nil {
		return nil, err
	}
	content, _ := args["content"].(string)
	_, el, err := s.layouts.AddCanvasElement(ctx, key, id, kind, content)
	if err != nil {
		return nil, fmt.Errorf("add canvas element: %w", err)
	}
	return jsonResult(el)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := s.docKey(req.GetArguments())
	if err != nil {
		return nil, err
	}
	l, err := s.layouts.Undo(ctx, key)
	if err != nil {
		return nil, err
	}
	return jsonResult(l.Sections.Children.Order)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := s.docKey(req.GetArguments())
	if err != nil {
		return nil, err
	}
	l, err := s.layouts.Redo(ctx, key)
	if err != nil {
		return nil, err
	}
	return jsonResult(l.Sections.Children.Order)
}
