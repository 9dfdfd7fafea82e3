package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/animation"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/service"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/stylecmd"
	"sitebuilder/internal/template"
)

type fixture struct {
	svc     *service.LayoutService
	routes  *storage.RouteStore
	history *storage.HistoryStore
	emitter *service.MockEmitter
}

// sequentialIDs yields 00000001, 00000002, ...
func sequentialIDs() layout.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%08d", n)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(storage.SQLite, filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog, err := template.New("", nil)
	require.NoError(t, err)

	f := &fixture{
		routes:  storage.NewRouteStore(db),
		history: storage.NewHistoryStore(db, storage.DefaultMaxHistory),
		emitter: &service.MockEmitter{},
	}
	f.svc = service.NewLayoutService(f.routes, f.history, catalog, f.emitter,
		service.WithIDGenerator(sequentialIDs()),
		service.WithSanitizer(true),
	)
	return f
}

var home = domain.DocKey{StoreID: "shop", Route: domain.HomeRoute, Mode: domain.ModeLarge}

var equateEmpty = cmpopts.EquateEmpty()

func TestLayoutService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	l, id, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)
	assert.Equal(t, "Banner-00000001", id)
	assert.Equal(t, []string{id}, l.Sections.Children.Order)

	got, err := f.svc.GetLayout(ctx, home)
	require.NoError(t, err)
	if diff := cmp.Diff(l.Sections.Children.Order, got.Sections.Children.Order); diff != "" {
		t.Errorf("stored order mismatch (-want +got):\n%s", diff)
	}
	sec, ok := layout.Section(got, id)
	require.True(t, ok)
	assert.Equal(t, "به فروشگاه ما خوش آمدید", sec.Blocks["text"])

	events := f.emitter.Named(service.EventLayoutChanged)
	require.Len(t, events, 1)
	change := events[0].Data.(service.LayoutChange)
	assert.Equal(t, layout.CommandCreate, change.Kind)
	assert.Equal(t, id, change.SectionID)
}

func TestLayoutService_CreateUnknownTemplateWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.svc.CreateSection(ctx, home, "NoSuchSection")
	assert.ErrorIs(t, err, layout.ErrTemplateNotFound)

	_, err = f.routes.GetRoute(ctx, "shop", domain.HomeRoute)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.emitter.Events)
}

func TestLayoutService_DeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	before, _, err := f.svc.CreateSection(ctx, home, "RichText")
	require.NoError(t, err)
	f.emitter.Events = nil

	after, err := f.svc.DeleteSection(ctx, home, "RichText-deadbeef")
	require.NoError(t, err)
	if diff := cmp.Diff(before, after, equateEmpty); diff != "" {
		t.Errorf("delete of unknown id changed the layout (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.emitter.Events)

	stored, err := f.svc.GetLayout(ctx, home)
	require.NoError(t, err)
	if diff := cmp.Diff(before, stored, equateEmpty); diff != "" {
		t.Errorf("stored layout differs (-want +got):\n%s", diff)
	}

	tree, err := f.svc.History(ctx, home)
	require.NoError(t, err)
	assert.Len(t, tree.Nodes, 2, "root plus the create")
}

func TestLayoutService_DeleteHeaderIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	before, _, err := f.svc.CreateSection(ctx, home, "RichText")
	require.NoError(t, err)
	f.emitter.Events = nil

	for _, id := range []string{"sectionHeader", "sectionFooter"} {
		after, err := f.svc.DeleteSection(ctx, home, id)
		require.NoError(t, err)
		if diff := cmp.Diff(before, after, equateEmpty); diff != "" {
			t.Errorf("delete %s changed the layout (-want +got):\n%s", id, diff)
		}
	}
	assert.Empty(t, f.emitter.Events)

	tree, err := f.svc.History(ctx, home)
	require.NoError(t, err)
	assert.Len(t, tree.Nodes, 2, "root plus the create")
}

func TestLayoutService_DeleteRemovesSection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, a, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)
	_, b, err := f.svc.CreateSection(ctx, home, "Video")
	require.NoError(t, err)

	l, err := f.svc.DeleteSection(ctx, home, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, l.Sections.Children.Order)
	require.Len(t, l.Sections.Children.Sections, 1)
	assert.Equal(t, b, l.Sections.Children.Sections[0].Type)
}

func TestLayoutService_UndoRedo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Undo(ctx, home)
	assert.ErrorIs(t, err, service.ErrNothingToUndo)

	_, a, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)
	_, b, err := f.svc.CreateSection(ctx, home, "Gallery")
	require.NoError(t, err)

	l, err := f.svc.Undo(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, l.Sections.Children.Order)

	l, err = f.svc.Undo(ctx, home)
	require.NoError(t, err)
	assert.Empty(t, l.Sections.Children.Order)

	_, err = f.svc.Undo(ctx, home)
	assert.ErrorIs(t, err, service.ErrNothingToUndo)

	l, err = f.svc.Redo(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, l.Sections.Children.Order)

	l, err = f.svc.Redo(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, l.Sections.Children.Order)

	_, err = f.svc.Redo(ctx, home)
	assert.ErrorIs(t, err, service.ErrNothingToRedo)

	stored, err := f.svc.GetLayout(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, stored.Sections.Children.Order)
}

func TestLayoutService_EditAfterUndoBranches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)
	_, err = f.svc.Undo(ctx, home)
	require.NoError(t, err)
	_, c, err := f.svc.CreateSection(ctx, home, "Story")
	require.NoError(t, err)

	tree, err := f.svc.History(ctx, home)
	require.NoError(t, err)
	assert.Len(t, tree.Nodes, 3)
	children := 0
	for _, n := range tree.Nodes {
		if n.ParentID != nil && *n.ParentID == tree.RootID {
			children++
		}
	}
	assert.Equal(t, 2, children, "both edits hang off the root")

	l, err := f.svc.Redo(ctx, home)
	assert.ErrorIs(t, err, service.ErrNothingToRedo)
	assert.Nil(t, l)

	cur, err := f.svc.GetLayout(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{c}, cur.Sections.Children.Order)
}

func TestLayoutService_PatchMoveStyle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, a, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)
	_, b, err := f.svc.CreateSection(ctx, home, "RichText")
	require.NoError(t, err)

	l, err := f.svc.PatchSection(ctx, home, a, "blocks.text", "سلام")
	require.NoError(t, err)
	sec, _ := layout.Section(l, a)
	assert.Equal(t, "سلام", sec.Blocks["text"])

	_, err = f.svc.PatchSection(ctx, home, a, "type", "x")
	assert.ErrorIs(t, err, layout.ErrInvalidPath)

	l, err = f.svc.MoveSection(ctx, home, b, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, l.Sections.Children.Order)

	_, updates, err := f.svc.ApplyStyleInstruction(ctx, home, a, "فاصله از بالا را به 40 پیکسل بذار")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"paddingTop": 40}, updates)

	stored, err := f.svc.GetLayout(ctx, home)
	require.NoError(t, err)
	sec, _ = layout.Section(stored, a)
	assert.EqualValues(t, 40, sec.Setting["paddingTop"])

	_, _, err = f.svc.ApplyStyleInstruction(ctx, home, a, "سلام")
	assert.ErrorIs(t, err, stylecmd.ErrNoMatch)
}

func TestLayoutService_PatchRejectsBadEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, a, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)

	_, err = f.svc.PatchSection(ctx, home, a, "blocks.hoverEffect", map[string]any{
		"type":      "hover",
		"animation": map[string]any{"type": "spin", "duration": "1s", "timing": "ease"},
	})
	assert.ErrorIs(t, err, animation.ErrInvalidConfig)

	_, err = f.svc.PatchSection(ctx, home, a, "blocks.hoverEffect", map[string]any{
		"type":      "hover",
		"animation": map[string]any{"type": "pulse", "duration": "1s", "timing": "ease"},
	})
	require.NoError(t, err)

	css, err := f.svc.Stylesheet(ctx, home)
	require.NoError(t, err)
	assert.Contains(t, css, ":hover")
	assert.Contains(t, css, "animation: pulse 1s ease")
}

func TestLayoutService_SaveLayoutSanitizesAndValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	l := domain.EmptyLayout()
	l.Sections.Children.Sections = []domain.Section{{
		Type:   "RichText-1",
		Blocks: map[string]any{"content": `<p>hi</p><script>alert(1)</script>`, "plain": "a & b"},
	}}
	l.Sections.Children.Order = []string{"RichText-1"}

	saved, err := f.svc.SaveLayout(ctx, home, l)
	require.NoError(t, err)
	blocks := saved.Sections.Children.Sections[0].Blocks
	assert.Equal(t, "<p>hi</p>", blocks["content"])
	assert.Equal(t, "a & b", blocks["plain"])

	bad := domain.EmptyLayout()
	bad.Sections.Children.Order = []string{"Ghost-1"}
	_, err = f.svc.SaveLayout(ctx, home, bad)
	assert.ErrorIs(t, err, layout.ErrInvariant)

	_, err = f.svc.SaveLayout(ctx, home, nil)
	assert.ErrorIs(t, err, layout.ErrInvariant)
}

func TestLayoutService_AddCanvasElement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, id, err := f.svc.CreateSection(ctx, home, "CanvasEditor")
	require.NoError(t, err)

	l, el, err := f.svc.AddCanvasElement(ctx, home, id, "button", "خرید")
	require.NoError(t, err)
	assert.Equal(t, "خرید", el.Content)
	sec, _ := layout.Section(l, id)
	assert.Len(t, sec.Blocks["elements"], 3)

	l, err = f.svc.Undo(ctx, home)
	require.NoError(t, err)
	sec, _ = layout.Section(l, id)
	assert.Len(t, sec.Blocks["elements"], 2)
}

func TestLayoutService_RoutesAndComposition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	catalog, err := template.New("", nil)
	require.NoError(t, err)
	defaults, _ := catalog.Template(domain.SectionHeaderKey)

	homeLayout := domain.EmptyLayout()
	homeLayout.Sections.SectionHeader = &defaults
	_, err = f.svc.SaveLayout(ctx, home, homeLayout)
	require.NoError(t, err)

	_, err = f.svc.CreateRoute(ctx, "shop", "about")
	require.NoError(t, err)
	_, err = f.svc.CreateRoute(ctx, "shop", "about")
	assert.ErrorIs(t, err, domain.ErrRouteExists)
	_, err = f.svc.CreateRoute(ctx, "shop", "a/b")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	about := domain.DocKey{StoreID: "shop", Route: "about", Mode: domain.ModeLarge}
	_, _, err = f.svc.CreateSection(ctx, about, "Brands")
	require.NoError(t, err)

	got, err := f.svc.GetLayout(ctx, about)
	require.NoError(t, err)
	require.NotNil(t, got.Sections.SectionHeader, "header comes from home")
	assert.Equal(t, "about", got.Sections.Children.Type)

	outline, err := f.svc.Outline(ctx, about)
	require.NoError(t, err)
	require.Len(t, outline, 2)
	assert.Equal(t, "Header", outline[0].Component)
	assert.Equal(t, "Brands", outline[1].Component)

	names, err := f.svc.ListRoutes(ctx, "shop")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"home", "about"}, names)

	require.NoError(t, f.svc.DeleteRoute(ctx, "shop", "about"))
	_, err = f.svc.GetLayout(ctx, about)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	tree, err := f.svc.History(ctx, about)
	require.NoError(t, err)
	assert.Empty(t, tree.Nodes)

	assert.ErrorIs(t, f.svc.DeleteRoute(ctx, "shop", "about"), domain.ErrNotFound)
	assert.Len(t, f.emitter.Named(service.EventRoutesChanged), 2)
}

func TestLayoutService_ModesAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	small := home
	small.Mode = domain.ModeSmall

	_, _, err := f.svc.CreateSection(ctx, home, "Banner")
	require.NoError(t, err)

	l, err := f.svc.GetLayout(ctx, small)
	require.NoError(t, err)
	assert.Empty(t, l.Sections.Children.Order)

	_, err = f.svc.Undo(ctx, small)
	assert.ErrorIs(t, err, service.ErrNothingToUndo)
}

func TestLayoutService_Templates(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.svc.Templates(), "Banner")
	assert.Contains(t, f.svc.Templates(), "CanvasEditor")
}
