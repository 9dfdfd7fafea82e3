package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/service"
)

const serverVersion = "1.0.0"

// Server is the MCP server of the site builder. It exposes tools, resources
// and prompts so AI agents can edit page layouts.
type Server struct {
	mcp      *server.MCPServer
	layouts  *service.LayoutService
	approval *ApprovalQueue
	logger   *zap.Logger

	storeID         string
	requireApproval bool

	mu          sync.Mutex
	activeRoute string
	activeMode  domain.Mode
}

// Deps holds everything the MCP server needs from the app layer.
type Deps struct {
	Name            string
	Layouts         *service.LayoutService
	Approvals       *ApprovalQueue
	StoreID         string
	RequireApproval bool
	Logger          *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := deps.Name
	if name == "" {
		name = "sitebuilder"
	}
	s := &Server{
		layouts:         deps.Layouts,
		approval:        deps.Approvals,
		logger:          logger.Named("mcp"),
		storeID:         deps.StoreID,
		requireApproval: deps.RequireApproval && deps.Approvals != nil,
		activeRoute:     domain.HomeRoute,
		activeMode:      domain.ModeLarge,
	}

	s.mcp = server.NewMCPServer(
		name,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerRouteTools()
	s.registerSectionTools()
	s.registerAnimationTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// HTTPHandler serves MCP over streamable HTTP.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// docKey resolves the document a tool call targets: explicit route and mode
// arguments win over the active route set by set_active_route.
func (s *Server) docKey(args map[string]any) (domain.DocKey, error) {
	s.mu.Lock()
	key := domain.DocKey{StoreID: s.storeID, Route: s.activeRoute, Mode: s.activeMode}
	s.mu.Unlock()

	if r, ok := args["route"].(string); ok && r != "" {
		key.Route = r
	}
	if m, ok := args["mode"].(string); ok && m != "" {
		mode, err := domain.ParseMode(m)
		if err != nil {
			return key, err
		}
		key.Mode = mode
	}
	if st, ok := args["storeId"].(string); ok && st != "" {
		key.StoreID = st
	}
	return key, nil
}

// confirm asks for approval of a destructive tool call when required.
func (s *Server) confirm(ctx context.Context, tool, description string, metadata any) error {
	if !s.requireApproval {
		return nil
	}
	return s.approval.Request(ctx, tool, description, marshalJSON(metadata))
}

func stringArg(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func boolPtr(v bool) *bool { return &v }
