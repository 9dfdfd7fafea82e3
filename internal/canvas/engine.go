package canvas

import "math"

const (
	DefaultGridSize = 10.0 // canvas default gridSize
	Padding         = 20.0 // 2 grid cells between elements
	MaxRowW         = 1000.0
	MinGridSize     = 1.0
	MaxCandidates   = 20000 // grid positions tried before placing below everything
)

// Engine places canvas elements on the grid without overlapping the ones
// already there.
type Engine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

// NewEngine returns an engine snapping to gridSize; values below MinGridSize
// use DefaultGridSize.
func NewEngine(gridSize float64) *Engine {
	if gridSize < MinGridSize || math.IsNaN(gridSize) || math.IsInf(gridSize, 0) {
		gridSize = DefaultGridSize
	}
	return &Engine{
		gridSize: gridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (e *Engine) snap(v float64) float64 {
	return math.Round(v/e.gridSize) * e.gridSize
}

type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func bounds(el Element) rect {
	return rect{el.Style.X, el.Style.Y, el.Style.Width, el.Style.Height}
}

// NextPosition finds the first grid position, scanning rows top to bottom,
// where a (w, h) element keeps Padding away from every existing element.
func (e *Engine) NextPosition(existing []Element, w, h float64) (float64, float64) {
	if len(existing) == 0 {
		return 0, 0
	}

	occupied := make([]rect, len(existing))
	for i, el := range existing {
		r := bounds(el)
		occupied[i] = rect{
			x: r.x - e.padding,
			y: r.y - e.padding,
			w: r.w + e.padding*2,
			h: r.h + e.padding*2,
		}
	}

	candidate := rect{w: w, h: h}
	tried := 0
scan:
	for y := 0.0; y < 10000; y += e.gridSize {
		for x := 0.0; x+w <= e.maxRowW || x == 0; x += e.gridSize {
			if tried++; tried > MaxCandidates {
				break scan
			}
			candidate.x = e.snap(x)
			candidate.y = e.snap(y)
			free := true
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					free = false
					break
				}
			}
			if free {
				return candidate.x, candidate.y
			}
		}
	}

	// below everything
	maxY := 0.0
	for _, el := range existing {
		maxY = max(maxY, el.Style.Y+el.Style.Height)
	}
	return 0, e.snap(maxY + e.padding)
}

// Arrange lays elements out in rows from (startX, startY), wrapping at
// MaxRowW. Positions are updated in place.
func (e *Engine) Arrange(elements []Element, startX, startY float64) []Element {
	x := e.snap(startX)
	y := e.snap(startY)
	rowHeight := 0.0

	for i := range elements {
		w := elements[i].Style.Width
		if x > e.snap(startX) && x+w > e.maxRowW {
			x = e.snap(startX)
			y += e.snap(rowHeight + e.padding)
			rowHeight = 0
		}
		elements[i].Style.X = x
		elements[i].Style.Y = y
		rowHeight = max(rowHeight, elements[i].Style.Height)
		x += e.snap(w + e.padding)
	}
	return elements
}
