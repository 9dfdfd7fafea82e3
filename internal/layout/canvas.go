package layout

import (
	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

// CanvasEditorName is the free-form canvas section. It has no template; its
// starting content is built here.
const CanvasEditorName = "CanvasEditor"

// CreateCanvas appends a CanvasEditor section with the default canvas
// setting and a heading and paragraph to start from.
func CreateCanvas(l *domain.Layout, newID IDGenerator) (*domain.Layout, string, error) {
	if newID == nil {
		newID = ShortID
	}
	id := CanvasEditorName + "-" + newID()
	section := domain.Section{
		Type: id,
		Setting: map[string]any{
			"paddingTop":      "20",
			"paddingBottom":   "20",
			"paddingLeft":     "20",
			"paddingRight":    "20",
			"marginTop":       "30",
			"marginBottom":    "30",
			"backgroundColor": "#ffffff",
		},
		Blocks: map[string]any{
			"elements": []any{
				canvasText("heading", "عنوان جدید", 50, 50, 300, 60, 24, "bold", "#000000"),
				canvasText("paragraph",
					"این یک متن نمونه است. شما می‌توانید این متن را ویرایش کنید یا المان‌های جدید به صفحه اضافه کنید.",
					50, 130, 400, 100, 16, "normal", "#333333"),
			},
			"setting": map[string]any{
				"canvasWidth":     "100%",
				"canvasHeight":    "500px",
				"backgroundColor": "#f9fafb",
				"gridSize":        float64(10),
				"showGrid":        true,
			},
		},
	}
	return appendSection(l, section), id, nil
}

func canvasText(kind, content string, x, y, w, h, fontSize float64, weight, color string) map[string]any {
	return map[string]any{
		"id":      uuid.NewString(),
		"type":    kind,
		"content": content,
		"style": map[string]any{
			"x":               x,
			"y":               y,
			"width":           w,
			"height":          h,
			"fontSize":        fontSize,
			"fontWeight":      weight,
			"color":           color,
			"backgroundColor": "transparent",
			"borderRadius":    float64(0),
			"padding":         float64(0),
			"textAlign":       "right",
			"zIndex":          float64(1),
		},
	}
}
