package canvas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
)

func TestNewElement(t *testing.T) {
	img, err := NewElement(Image)
	require.NoError(t, err)
	assert.NotEmpty(t, img.ID)
	assert.Equal(t, 200.0, img.Style.Width)
	assert.Equal(t, 150.0, img.Style.Height)
	assert.Equal(t, "/assets/images/placeholder.jpg", img.Src)

	div, err := NewElement(Div)
	require.NoError(t, err)
	assert.Equal(t, "#f3f4f6", div.Style.BackgroundColor)

	_, err = NewElement("video")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestDecodeEncode(t *testing.T) {
	blocks := map[string]any{
		"elements": []any{
			map[string]any{"id": "a", "type": "heading", "content": "hi",
				"style": map[string]any{"x": float64(10), "y": float64(20), "width": float64(30), "height": float64(40)}},
		},
	}
	got, err := Decode(blocks)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Content)
	assert.Equal(t, 40.0, got[0].Style.Height)

	enc, err := Encode(got)
	require.NoError(t, err)
	m := enc[0].(map[string]any)
	assert.Equal(t, "a", m["id"])
	assert.Equal(t, float64(10), m["style"].(map[string]any)["x"])

	none, err := Decode(map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = Decode(map[string]any{"elements": "oops"})
	assert.Error(t, err)
}

func TestAddElement(t *testing.T) {
	l, id, err := layout.CreateCanvas(domain.EmptyLayout(), func() string { return "c0ffee00" })
	require.NoError(t, err)

	out, added, err := AddElement(l, id, Button, "خرید")
	require.NoError(t, err)
	assert.Equal(t, "خرید", added.Content)

	s, ok := layout.Section(out, id)
	require.True(t, ok)
	elements, err := Decode(s.Blocks)
	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, added.ID, elements[2].ID)

	for _, ex := range elements[:2] {
		if bounds(ex).intersects(bounds(added)) {
			t.Errorf("new element overlaps %s", ex.Type)
		}
	}

	before, _ := layout.Section(l, id)
	assert.Len(t, before.Blocks["elements"], 2, "input layout must not change")
}

func TestAddElement_Errors(t *testing.T) {
	l := domain.EmptyLayout()

	_, _, err := AddElement(l, "Banner-1", Heading, "")
	assert.ErrorIs(t, err, ErrNotCanvas)

	_, _, err = AddElement(l, "CanvasEditor-missing", Heading, "")
	assert.ErrorIs(t, err, layout.ErrSectionNotFound)
}

func TestAddElement_TinyGridStillPlaces(t *testing.T) {
	l, id, err := layout.CreateCanvas(domain.EmptyLayout(), func() string { return "c0ffee00" })
	require.NoError(t, err)
	l, err = layout.Patch(l, id, "blocks.setting.gridSize", 0.01)
	require.NoError(t, err)
	l, err = layout.Patch(l, id, "blocks.elements.0.style.width", float64(1000))
	require.NoError(t, err)
	l, err = layout.Patch(l, id, "blocks.elements.0.style.height", float64(3000))
	require.NoError(t, err)

	type result struct {
		el  Element
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, added, err := AddElement(l, id, Div, "")
		done <- result{added, err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		s, _ := layout.Section(l, id)
		existing, err := Decode(s.Blocks)
		require.NoError(t, err)
		for _, ex := range existing {
			if bounds(ex).intersects(bounds(res.el)) {
				t.Errorf("new element overlaps %s", ex.Type)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("AddElement did not return with gridSize 0.01")
	}
}
