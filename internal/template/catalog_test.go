package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
)

const bannerOverride = `{
  "sections": {
    "children": {
      "sections": [{"type": "Banner", "blocks": {"heading": "custom"}}],
      "order": ["Banner"]
    }
  }
}`

func TestCatalog_Default(t *testing.T) {
	c, err := New("", zap.NewNop())
	require.NoError(t, err)

	for _, name := range []string{"Banner", "RichText", "ImageText", "Video", "Gallery", "Story", "sectionHeader", "sectionFooter"} {
		_, ok := c.Template(name)
		assert.True(t, ok, name)
	}
	_, ok := c.Template("Nope")
	assert.False(t, ok)

	names := c.Names()
	assert.Contains(t, names, "Banner")
	assert.Contains(t, names, layout.CanvasEditorName)
	assert.IsNonDecreasing(t, names)

	// callers get their own copy
	s, _ := c.Template("Banner")
	s.Blocks["heading"] = "changed"
	again, _ := c.Template("Banner")
	assert.NotEqual(t, "changed", again.Blocks["heading"])
}

func TestCatalog_DirectoryOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.json"), []byte(bannerOverride), 0o644))

	c, err := New(dir, nil)
	require.NoError(t, err)

	s, ok := c.Template("Banner")
	require.True(t, ok)
	assert.Equal(t, "custom", s.Blocks["heading"])

	// names still come from the default layout too
	_, ok = c.Template("Gallery")
	assert.True(t, ok)
}

func TestCatalog_CreateUsesCatalog(t *testing.T) {
	c, err := New("", nil)
	require.NoError(t, err)

	out, id, err := layout.Create(domain.EmptyLayout(), "ImageText", c, func() string { return "12345678" })
	require.NoError(t, err)
	assert.Equal(t, "ImageText-12345678", id)
	s, _ := layout.Section(out, id)
	assert.Equal(t, "تصویر و متن", s.Blocks["heading"])
}

func TestCatalog_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	_, err := New(dir, nil)
	assert.Error(t, err)
}

func TestCatalog_ReloadFailureKeepsTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shop.json")
	require.NoError(t, os.WriteFile(path, []byte(bannerOverride), 0o644))
	c, err := New(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	assert.Error(t, c.Reload())

	s, ok := c.Template("Banner")
	require.True(t, ok)
	assert.Equal(t, "custom", s.Blocks["heading"])
}

func TestCatalog_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	c, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.watch(ctx, 20*time.Millisecond) }()

	assert.Eventually(t, func() bool {
		// rewrite until the watcher has registered the directory
		_ = os.WriteFile(filepath.Join(dir, "shop.json"), []byte(bannerOverride), 0o644)
		s, ok := c.Template("Banner")
		return ok && s.Blocks["heading"] == "custom"
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCatalog_WatchWithoutDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := New("", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Watch(ctx))
}
