// Package template serves the section templates new sections are cloned
// from.
package template

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
)

//go:embed templates/default.json
var defaultTemplates []byte

// Catalog resolves section names against the embedded default template
// layout and, when configured, every *.json layout in a directory. Directory
// layouts win over the default; among them later file names win.
type Catalog struct {
	dir    string
	logger *zap.Logger

	mu      sync.RWMutex
	layouts []*domain.Layout // lowest priority first
}

// New loads the catalog. dir may be empty.
func New(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{dir: dir, logger: logger.Named("templates")}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the template directory. On failure the previously loaded
// templates stay in place.
func (c *Catalog) Reload() error {
	base, err := parse(defaultTemplates)
	if err != nil {
		return fmt.Errorf("parse default templates: %w", err)
	}
	layouts := []*domain.Layout{base}

	if c.dir != "" {
		files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		sort.Strings(files)
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("read template %s: %w", f, err)
			}
			l, err := parse(data)
			if err != nil {
				return fmt.Errorf("parse template %s: %w", filepath.Base(f), err)
			}
			layouts = append(layouts, l)
		}
	}

	c.mu.Lock()
	c.layouts = layouts
	c.mu.Unlock()
	c.logger.Debug("templates loaded", zap.Int("layouts", len(layouts)))
	return nil
}

func parse(data []byte) (*domain.Layout, error) {
	var l domain.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Template returns a copy of the template for name.
func (c *Catalog) Template(name string) (domain.Section, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.layouts) - 1; i >= 0; i-- {
		if found := layout.Compile(c.layouts[i], name); len(found) > 0 {
			return layout.CloneSection(found[0]), true
		}
	}
	return domain.Section{}, false
}

// Names lists every section name that can be created, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]bool{layout.CanvasEditorName: true}
	for _, l := range c.layouts {
		for _, s := range l.Sections.Children.Sections {
			if name := layout.BaseName(s.Type); name != "" {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func isTemplateFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
