package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"sitebuilder/internal/animation"
	"sitebuilder/internal/canvas"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/stylecmd"
)

// Events emitted by the layout service.
const (
	EventLayoutChanged = "layout:changed"
	EventRoutesChanged = "routes:changed"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// LayoutChange is the payload of EventLayoutChanged.
type LayoutChange struct {
	StoreID   string             `json:"storeId"`
	Route     string             `json:"route"`
	Mode      domain.Mode        `json:"mode"`
	Kind      layout.CommandKind `json:"kind,omitempty"`
	SectionID string             `json:"sectionId,omitempty"`
	Label     string             `json:"label"`
}

// RoutesChange is the payload of EventRoutesChanged.
type RoutesChange struct {
	StoreID string `json:"storeId"`
	Route   string `json:"route"`
	Action  string `json:"action"` // created, deleted
}

// ─────────────────────────────────────────────────────────────
// Layout Service — versioned edits of route layouts
// ─────────────────────────────────────────────────────────────

// LayoutService applies section commands to stored layouts. Every change is
// written to the route store, recorded in the history tree and announced
// through the emitter. Edits of one document are serialised.
type LayoutService struct {
	routes    domain.RouteStore
	history   domain.HistoryStore
	templates layout.TemplateSource
	editor    *layout.Editor
	emitter   EventEmitter
	policy    *bluemonday.Policy
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// LayoutOption configures a LayoutService.
type LayoutOption func(*layoutOptions)

type layoutOptions struct {
	newID    layout.IDGenerator
	sanitize bool
	logger   *zap.Logger
}

// WithIDGenerator replaces the random section id suffix.
func WithIDGenerator(g layout.IDGenerator) LayoutOption {
	return func(o *layoutOptions) { o.newID = g }
}

// WithSanitizer strips unsafe HTML from string block values on write.
func WithSanitizer(enabled bool) LayoutOption {
	return func(o *layoutOptions) { o.sanitize = enabled }
}

func WithLogger(l *zap.Logger) LayoutOption {
	return func(o *layoutOptions) { o.logger = l }
}

// NewLayoutService creates a LayoutService.
func NewLayoutService(routes domain.RouteStore, history domain.HistoryStore, templates layout.TemplateSource, emitter EventEmitter, opts ...LayoutOption) *LayoutService {
	o := layoutOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &LayoutService{
		routes:    routes,
		history:   history,
		templates: templates,
		editor:    layout.NewEditor(templates, o.newID),
		emitter:   emitter,
		logger:    o.logger.Named("layout"),
		locks:     make(map[string]*sync.Mutex),
	}
	if o.sanitize {
		s.policy = bluemonday.UGCPolicy()
	}
	return s
}

func (s *LayoutService) lock(key domain.DocKey) func() {
	s.locksMu.Lock()
	m, ok := s.locks[key.String()]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key.String()] = m
	}
	s.locksMu.Unlock()
	m.Lock()
	return m.Unlock
}

// ── Reads ──────────────────────────────────────────────────

// GetLayout returns the layout of key as the preview renders it: routes
// other than home carry home's header and footer.
func (s *LayoutService) GetLayout(ctx context.Context, key domain.DocKey) (*domain.Layout, error) {
	l, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if key.Route == domain.HomeRoute {
		return l, nil
	}

	home, err := s.routes.GetRoute(ctx, key.StoreID, domain.HomeRoute)
	if errors.Is(err, domain.ErrNotFound) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load home for %s: %w", key.Route, err)
	}
	if hl := home.Content(key.Mode); hl != nil {
		hc := layout.Clone(hl)
		l.Sections.SectionHeader = hc.Sections.SectionHeader
		l.Sections.SectionFooter = hc.Sections.SectionFooter
	}
	return l, nil
}

// load returns the stored layout of key. A missing home route reads as an
// empty layout; other routes must be created first.
func (s *LayoutService) load(ctx context.Context, key domain.DocKey) (*domain.Layout, error) {
	doc, err := s.routes.GetRoute(ctx, key.StoreID, key.Route)
	if errors.Is(err, domain.ErrNotFound) && key.Route == domain.HomeRoute {
		return domain.EmptyLayout(), nil
	}
	if err != nil {
		return nil, err
	}
	l := doc.Content(key.Mode)
	if l == nil {
		return domain.EmptyLayout(), nil
	}
	return l, nil
}

// Outline lists the sections the preview renders, in order.
func (s *LayoutService) Outline(ctx context.Context, key domain.DocKey) ([]layout.OutlineEntry, error) {
	l, err := s.GetLayout(ctx, key)
	if err != nil {
		return nil, err
	}
	return layout.Outline(l), nil
}

// Stylesheet renders the hover and click effects of key's layout as CSS.
func (s *LayoutService) Stylesheet(ctx context.Context, key domain.DocKey) (string, error) {
	l, err := s.GetLayout(ctx, key)
	if err != nil {
		return "", err
	}
	return animation.Stylesheet(l), nil
}

// History returns the version tree of key; an untouched document has an
// empty tree.
func (s *LayoutService) History(ctx context.Context, key domain.DocKey) (*domain.HistoryTree, error) {
	tree, err := s.history.LoadTree(ctx, key.String())
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return &domain.HistoryTree{Nodes: []domain.HistoryNode{}}, nil
	}
	return tree, nil
}

// ── Section commands ───────────────────────────────────────

// CreateSection appends a section cloned from the template for name and
// returns the new layout and section id. An unknown name changes nothing
// and returns layout.ErrTemplateNotFound.
func (s *LayoutService) CreateSection(ctx context.Context, key domain.DocKey, name string) (*domain.Layout, string, error) {
	l, cmd, err := s.apply(ctx, key, layout.Command{Kind: layout.CommandCreate, SectionName: name})
	if err != nil {
		return nil, "", err
	}
	return l, cmd.SectionID, nil
}

// DeleteSection removes id. Deleting an id that is not present rewrites the
// unchanged layout but records no history node and emits no event.
func (s *LayoutService) DeleteSection(ctx context.Context, key domain.DocKey, id string) (*domain.Layout, error) {
	l, _, err := s.apply(ctx, key, layout.Command{Kind: layout.CommandDelete, SectionID: id})
	return l, err
}

// PatchSection sets one field inside a section; see layout.Patch.
func (s *LayoutService) PatchSection(ctx context.Context, key domain.DocKey, id, path string, value any) (*domain.Layout, error) {
	l, _, err := s.apply(ctx, key, layout.Command{Kind: layout.CommandPatch, SectionID: id, Path: path, Value: value})
	return l, err
}

// MoveSection moves id to index in the display order.
func (s *LayoutService) MoveSection(ctx context.Context, key domain.DocKey, id string, index int) (*domain.Layout, error) {
	l, _, err := s.apply(ctx, key, layout.Command{Kind: layout.CommandMove, SectionID: id, Index: index})
	return l, err
}

// ApplyStyleInstruction parses a Persian style instruction and merges the
// result into the section's setting.
func (s *LayoutService) ApplyStyleInstruction(ctx context.Context, key domain.DocKey, id, instruction string) (*domain.Layout, map[string]any, error) {
	updates, err := stylecmd.Parse(instruction)
	if err != nil {
		return nil, nil, err
	}
	l, _, err := s.apply(ctx, key, layout.Command{Kind: layout.CommandMergeSetting, SectionID: id, Setting: updates})
	if err != nil {
		return nil, nil, err
	}
	return l, updates, nil
}

// AddCanvasElement places a new element on the canvas section id.
func (s *LayoutService) AddCanvasElement(ctx context.Context, key domain.DocKey, id, kind, content string) (*domain.Layout, canvas.Element, error) {
	var added canvas.Element
	l, _, err := s.mutate(ctx, key, func(cur *domain.Layout) (*domain.Layout, layout.Command, error) {
		next, el, err := canvas.AddElement(cur, id, kind, content)
		if err != nil {
			return nil, layout.Command{}, err
		}
		added = el
		section, _ := layout.Section(next, id)
		return next, layout.Command{
			Kind:      layout.CommandPatch,
			SectionID: id,
			Path:      "blocks.elements",
			Value:     section.Blocks["elements"],
		}, nil
	})
	if err != nil {
		return nil, canvas.Element{}, err
	}
	return l, added, nil
}

// SaveLayout replaces the whole layout of key after validating it.
func (s *LayoutService) SaveLayout(ctx context.Context, key domain.DocKey, l *domain.Layout) (*domain.Layout, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil layout", layout.ErrInvariant)
	}
	out, _, err := s.apply(ctx, key, layout.Command{Kind: layout.CommandReplace, Layout: l})
	return out, err
}

func (s *LayoutService) apply(ctx context.Context, key domain.DocKey, cmd layout.Command) (*domain.Layout, layout.Command, error) {
	return s.mutate(ctx, key, func(cur *domain.Layout) (*domain.Layout, layout.Command, error) {
		if cmd.Kind == layout.CommandDelete {
			if !hasChild(cur, cmd.SectionID) {
				if err := s.routes.SaveLayout(ctx, key.StoreID, key.Route, key.Mode, cur); err != nil {
					return nil, layout.Command{}, fmt.Errorf("save layout: %w", err)
				}
				return cur, layout.Command{}, nil
			}
		}
		return s.editor.Apply(cur, cmd)
	})
}

// hasChild reports whether id is a body section. Header and footer are
// never deleted.
func hasChild(l *domain.Layout, id string) bool {
	for _, sec := range l.Sections.Children.Sections {
		if sec.Type == id {
			return true
		}
	}
	return false
}

// mutate runs fn on the current layout of key under the document lock and
// persists the result. An empty command kind from fn means "no change".
func (s *LayoutService) mutate(ctx context.Context, key domain.DocKey, fn func(*domain.Layout) (*domain.Layout, layout.Command, error)) (*domain.Layout, layout.Command, error) {
	unlock := s.lock(key)
	defer unlock()

	cur, err := s.load(ctx, key)
	if err != nil {
		return nil, layout.Command{}, err
	}
	next, cmd, err := fn(cur)
	if err != nil {
		return nil, cmd, err
	}
	if cmd.Kind == "" {
		return next, cmd, nil
	}

	if cmd.Kind == layout.CommandReplace || cmd.Kind == layout.CommandPatch {
		s.sanitize(next)
	}
	if err := s.validate(next, cmd); err != nil {
		return nil, cmd, err
	}

	if err := s.routes.SaveLayout(ctx, key.StoreID, key.Route, key.Mode, next); err != nil {
		return nil, cmd, fmt.Errorf("save layout: %w", err)
	}
	if err := s.record(ctx, key, cur, next, cmd); err != nil {
		// the layout is saved; a history failure only costs undo
		s.logger.Warn("record history failed", zap.String("doc", key.String()), zap.Error(err))
	}
	s.emitter.Emit(ctx, EventLayoutChanged, LayoutChange{
		StoreID:   key.StoreID,
		Route:     key.Route,
		Mode:      key.Mode,
		Kind:      cmd.Kind,
		SectionID: cmd.SectionID,
		Label:     cmd.Label(),
	})
	s.logger.Debug("layout changed", zap.String("doc", key.String()), zap.String("command", cmd.Label()))
	return next, cmd, nil
}

func (s *LayoutService) validate(l *domain.Layout, cmd layout.Command) error {
	if err := layout.Validate(l); err != nil {
		return err
	}
	switch cmd.Kind {
	case layout.CommandReplace:
		return animation.ValidateLayout(l)
	case layout.CommandPatch:
		section, ok := layout.Section(l, cmd.SectionID)
		if !ok {
			return nil
		}
		var errs []error
		for _, f := range animation.CollectEffects(section.Blocks) {
			if err := animation.ValidateEffect(f.Effect); err != nil {
				errs = append(errs, fmt.Errorf("%s blocks.%s: %w", cmd.SectionID, f.Path, err))
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

// sanitize cleans every string in section blocks that contains markup.
func (s *LayoutService) sanitize(l *domain.Layout) {
	if s.policy == nil {
		return
	}
	clean := func(sec *domain.Section) {
		if sec != nil {
			s.sanitizeMap(sec.Blocks)
		}
	}
	clean(l.Sections.SectionHeader)
	clean(l.Sections.SectionFooter)
	for i := range l.Sections.Children.Sections {
		clean(&l.Sections.Children.Sections[i])
	}
}

func (s *LayoutService) sanitizeMap(m map[string]any) {
	for k, v := range m {
		m[k] = s.sanitizeValue(v)
	}
}

func (s *LayoutService) sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		if strings.ContainsRune(t, '<') {
			return s.policy.Sanitize(t)
		}
	case map[string]any:
		s.sanitizeMap(t)
	case []any:
		for i := range t {
			t[i] = s.sanitizeValue(t[i])
		}
	}
	return v
}

// ── History ────────────────────────────────────────────────

// record pushes next under the current history node. The first change of a
// document also stores the version it started from as the root.
func (s *LayoutService) record(ctx context.Context, key domain.DocKey, prev, next *domain.Layout, cmd layout.Command) error {
	docKey := key.String()
	tree, err := s.history.LoadTree(ctx, docKey)
	if err != nil {
		return err
	}
	parent := ""
	if tree != nil {
		parent = tree.CurrentID
	} else {
		snap, err := json.Marshal(prev)
		if err != nil {
			return err
		}
		root, err := s.history.PushNode(ctx, docKey, "", "initial", "", string(snap))
		if err != nil {
			return err
		}
		parent = root.ID
	}

	cmdJSON, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	snap, err := json.Marshal(next)
	if err != nil {
		return err
	}
	_, err = s.history.PushNode(ctx, docKey, parent, cmd.Label(), string(cmdJSON), string(snap))
	return err
}

// Undo restores the parent of the current version.
func (s *LayoutService) Undo(ctx context.Context, key domain.DocKey) (*domain.Layout, error) {
	return s.travel(ctx, key, "undo", func(tree *domain.HistoryTree) (*domain.HistoryNode, bool) {
		cur, ok := tree.Node(tree.CurrentID)
		if !ok || cur.ParentID == nil {
			return nil, false
		}
		return tree.Node(*cur.ParentID)
	}, ErrNothingToUndo)
}

// Redo restores the most recent child of the current version.
func (s *LayoutService) Redo(ctx context.Context, key domain.DocKey) (*domain.Layout, error) {
	return s.travel(ctx, key, "redo", func(tree *domain.HistoryTree) (*domain.HistoryNode, bool) {
		return tree.LatestChild(tree.CurrentID)
	}, ErrNothingToRedo)
}

func (s *LayoutService) travel(ctx context.Context, key domain.DocKey, label string, pick func(*domain.HistoryTree) (*domain.HistoryNode, bool), none error) (*domain.Layout, error) {
	unlock := s.lock(key)
	defer unlock()

	tree, err := s.history.LoadTree(ctx, key.String())
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, none
	}
	target, ok := pick(tree)
	if !ok {
		return nil, none
	}

	var l domain.Layout
	if err := json.Unmarshal([]byte(target.SnapshotJSON), &l); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", target.ID, err)
	}
	if err := s.routes.SaveLayout(ctx, key.StoreID, key.Route, key.Mode, &l); err != nil {
		return nil, fmt.Errorf("save layout: %w", err)
	}
	if err := s.history.GoTo(ctx, key.String(), target.ID); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventLayoutChanged, LayoutChange{
		StoreID: key.StoreID,
		Route:   key.Route,
		Mode:    key.Mode,
		Label:   label + " " + target.Label,
	})
	return &l, nil
}

// ── Routes ─────────────────────────────────────────────────

func (s *LayoutService) ListRoutes(ctx context.Context, storeID string) ([]string, error) {
	return s.routes.ListRoutes(ctx, storeID)
}

func (s *LayoutService) CreateRoute(ctx context.Context, storeID, route string) (*domain.RouteDocument, error) {
	route = strings.TrimSpace(route)
	if route == "" || strings.ContainsAny(route, "/ ") {
		return nil, fmt.Errorf("%w: route name %q", ErrInvalidInput, route)
	}
	doc, err := s.routes.CreateRoute(ctx, storeID, route)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventRoutesChanged, RoutesChange{StoreID: storeID, Route: route, Action: "created"})
	return doc, nil
}

// DeleteRoute removes a route and the history of both its modes.
func (s *LayoutService) DeleteRoute(ctx context.Context, storeID, route string) error {
	if err := s.routes.DeleteRoute(ctx, storeID, route); err != nil {
		return err
	}
	for _, mode := range []domain.Mode{domain.ModeLarge, domain.ModeSmall} {
		key := domain.DocKey{StoreID: storeID, Route: route, Mode: mode}
		if err := s.history.ClearDoc(ctx, key.String()); err != nil {
			s.logger.Warn("clear history failed", zap.String("doc", key.String()), zap.Error(err))
		}
	}
	s.emitter.Emit(ctx, EventRoutesChanged, RoutesChange{StoreID: storeID, Route: route, Action: "deleted"})
	return nil
}

// Templates lists the section names CreateSection accepts.
func (s *LayoutService) Templates() []string {
	if n, ok := s.templates.(interface{ Names() []string }); ok {
		return n.Names()
	}
	return nil
}
