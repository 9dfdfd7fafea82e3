package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/service"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/template"
)

func newTestServer(t *testing.T, requireApproval bool) (*Server, *service.LayoutService, *ApprovalQueue) {
	t.Helper()
	db, err := storage.Open(storage.SQLite, filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	catalog, err := template.New("", nil)
	require.NoError(t, err)

	n := 0
	layouts := service.NewLayoutService(storage.NewRouteStore(db), storage.NewHistoryStore(db, 0), catalog, service.NopEmitter{},
		service.WithIDGenerator(func() string { n++; return fmt.Sprintf("id%06d", n) }))
	approvals := NewApprovalQueue(service.NopEmitter{}, time.Second)
	s := New(Deps{Layouts: layouts, Approvals: approvals, StoreID: "shop", RequireApproval: requireApproval})
	return s, layouts, approvals
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

var homeKey = domain.DocKey{StoreID: "shop", Route: domain.HomeRoute, Mode: domain.ModeLarge}

func TestTools_CreatePatchMoveSection(t *testing.T) {
	ctx := context.Background()
	s, layouts, _ := newTestServer(t, false)

	res, err := s.handleCreateSection(ctx, call(map[string]any{"name": "Banner"}))
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &created))
	assert.Equal(t, "Banner-id000001", created["sectionId"])

	_, err = s.handleCreateSection(ctx, call(map[string]any{"name": "Video"}))
	require.NoError(t, err)

	_, err = s.handlePatchSection(ctx, call(map[string]any{
		"sectionId": "Banner-id000001", "path": "setting.paddingTop", "value": "32",
	}))
	require.NoError(t, err)
	_, err = s.handlePatchSection(ctx, call(map[string]any{
		"sectionId": "Banner-id000001", "path": "blocks.text", "value": "خوش آمدید",
	}))
	require.NoError(t, err)

	_, err = s.handleMoveSection(ctx, call(map[string]any{"sectionId": "Video-id000002", "index": float64(0)}))
	require.NoError(t, err)

	l, err := layouts.GetLayout(ctx, homeKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"Video-id000002", "Banner-id000001"}, l.Sections.Children.Order)
	sec, _ := layout.Section(l, "Banner-id000001")
	assert.EqualValues(t, 32, sec.Setting["paddingTop"])
	assert.Equal(t, "خوش آمدید", sec.Blocks["text"])

	_, err = s.handleCreateSection(ctx, call(map[string]any{}))
	assert.Error(t, err)
}

func TestTools_ActiveRoute(t *testing.T) {
	ctx := context.Background()
	s, layouts, _ := newTestServer(t, false)

	_, err := s.handleCreateRoute(ctx, call(map[string]any{"route": "about"}))
	require.NoError(t, err)
	_, err = s.handleSetActiveRoute(ctx, call(map[string]any{"route": "about", "mode": "sm"}))
	require.NoError(t, err)
	_, err = s.handleCreateSection(ctx, call(map[string]any{"name": "Brands"}))
	require.NoError(t, err)

	l, err := layouts.GetLayout(ctx, domain.DocKey{StoreID: "shop", Route: "about", Mode: domain.ModeSmall})
	require.NoError(t, err)
	assert.Equal(t, []string{"Brands-id000001"}, l.Sections.Children.Order)

	_, err = s.handleSetActiveRoute(ctx, call(map[string]any{"route": "about", "mode": "xl"}))
	assert.Error(t, err)
}

func TestTools_DeleteSectionNeedsApproval(t *testing.T) {
	ctx := context.Background()
	s, layouts, approvals := newTestServer(t, true)

	_, id, err := layouts.CreateSection(ctx, homeKey, "RichText")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.handleDeleteSection(ctx, call(map[string]any{"sectionId": id}))
		done <- err
	}()
	pending := waitPending(t, approvals, 1)
	assert.Contains(t, pending[0].Metadata, id)
	require.NoError(t, approvals.Approve(ctx, pending[0].ID))
	require.NoError(t, <-done)

	l, err := layouts.GetLayout(ctx, homeKey)
	require.NoError(t, err)
	assert.Empty(t, l.Sections.Children.Order)
}

func TestTools_DeleteSectionRejected(t *testing.T) {
	ctx := context.Background()
	s, layouts, approvals := newTestServer(t, true)

	_, id, err := layouts.CreateSection(ctx, homeKey, "RichText")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.handleDeleteSection(ctx, call(map[string]any{"sectionId": id}))
		done <- err
	}()
	pending := waitPending(t, approvals, 1)
	require.NoError(t, approvals.Reject(ctx, pending[0].ID))
	assert.ErrorIs(t, <-done, ErrRejected)

	l, err := layouts.GetLayout(ctx, homeKey)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, l.Sections.Children.Order)
}

func TestTools_StyleCanvasUndo(t *testing.T) {
	ctx := context.Background()
	s, layouts, _ := newTestServer(t, false)

	_, id, err := layouts.CreateSection(ctx, homeKey, "CanvasEditor")
	require.NoError(t, err)

	res, err := s.handleApplyStyle(ctx, call(map[string]any{"sectionId": id, "instruction": "عرض را 300 پیکسل کن"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":300}`, resultText(t, res))

	res, err = s.handleAddCanvasElement(ctx, call(map[string]any{"sectionId": id, "type": "heading", "content": "سلام"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "سلام")

	_, err = s.handleUndo(ctx, call(nil))
	require.NoError(t, err)
	_, err = s.handleRedo(ctx, call(nil))
	require.NoError(t, err)
	_, err = s.handleRedo(ctx, call(nil))
	assert.ErrorIs(t, err, service.ErrNothingToRedo)
}

func TestTools_AnimationCSS(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestServer(t, false)

	res, err := s.handleAnimationCSS(ctx, call(map[string]any{"type": "scaleup"}))
	require.NoError(t, err)
	assert.Equal(t, "animation: scaleup 0.3s ease-out 0s 1;", resultText(t, res))

	res, err = s.handleAnimationCSS(ctx, call(map[string]any{"type": "pulse", "effect": "click", "iterationCount": "infinite"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), ":active {")
	assert.Contains(t, resultText(t, res), "infinite")

	_, err = s.handleAnimationCSS(ctx, call(map[string]any{"type": "pulse", "duration": "fast"}))
	assert.Error(t, err)
}

func TestResources_Layout(t *testing.T) {
	ctx := context.Background()
	s, layouts, _ := newTestServer(t, false)
	_, _, err := layouts.CreateSection(ctx, homeKey, "Gallery")
	require.NoError(t, err)

	var req mcp.ReadResourceRequest
	req.Params.URI = "sitebuilder://layout/home"
	contents, err := s.handleLayoutResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, "Gallery-id000001")

	assert.Equal(t, "", routeFromURI("sitebuilder://layout/a/b"))
	assert.Equal(t, "", routeFromURI("other://layout/home"))
}
