package canvas

import (
	"testing"
)

func el(x, y, w, h float64) Element {
	return Element{Style: Style{X: x, Y: y, Width: w, Height: h}}
}

func TestNextPosition_EmptyCanvas(t *testing.T) {
	e := NewEngine(0)
	x, y := e.NextPosition(nil, 200, 50)
	if x != 0 || y != 0 {
		t.Errorf("expected (0, 0) for empty canvas, got (%.0f, %.0f)", x, y)
	}
}

func TestNextPosition_AvoidsExisting(t *testing.T) {
	e := NewEngine(10)
	existing := []Element{
		el(50, 50, 300, 60),
		el(50, 130, 400, 100),
	}
	x, y := e.NextPosition(existing, 200, 50)

	r := rect{x, y, 200, 50}
	for _, ex := range existing {
		b := bounds(ex)
		padded := rect{b.x - Padding, b.y - Padding, b.w + Padding*2, b.h + Padding*2}
		if r.intersects(padded) {
			t.Errorf("position (%.0f, %.0f) overlaps element at (%.0f, %.0f)", x, y, b.x, b.y)
		}
	}
	if x != 370 || y != 0 {
		t.Errorf("expected first free slot (370, 0), got (%.0f, %.0f)", x, y)
	}
}

func TestNextPosition_FullRowFallsBelow(t *testing.T) {
	e := NewEngine(10)
	existing := []Element{el(0, 0, MaxRowW, 100)}
	x, y := e.NextPosition(existing, 200, 50)
	if x != 0 || y != 120 {
		t.Errorf("expected (0, 120), got (%.0f, %.0f)", x, y)
	}
}

func TestArrange(t *testing.T) {
	e := NewEngine(10)
	elements := []Element{
		el(0, 0, 400, 100),
		el(0, 0, 400, 150),
		el(0, 0, 400, 100),
	}
	arranged := e.Arrange(elements, 5, 5)

	if arranged[0].Style.X != 10 || arranged[0].Style.Y != 10 {
		t.Errorf("first element at (%.0f, %.0f), want (10, 10)", arranged[0].Style.X, arranged[0].Style.Y)
	}
	if arranged[1].Style.Y != 10 {
		t.Errorf("second element should share the first row, got y=%.0f", arranged[1].Style.Y)
	}
	if arranged[2].Style.X != 10 || arranged[2].Style.Y != 180 {
		t.Errorf("third element should wrap to (10, 180), got (%.0f, %.0f)", arranged[2].Style.X, arranged[2].Style.Y)
	}
	for i := 0; i < len(arranged); i++ {
		for j := i + 1; j < len(arranged); j++ {
			if bounds(arranged[i]).intersects(bounds(arranged[j])) {
				t.Errorf("elements %d and %d overlap", i, j)
			}
		}
	}
}

func TestSnap(t *testing.T) {
	e := NewEngine(10)
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{4, 0},
		{5, 10},
		{14, 10},
		{-6, -10},
	}
	for _, tt := range tests {
		if got := e.snap(tt.in); got != tt.want {
			t.Errorf("snap(%.0f) = %.0f, want %.0f", tt.in, got, tt.want)
		}
	}
}

func TestNewEngine_ClampsGridSize(t *testing.T) {
	for _, g := range []float64{-5, 0, 0.01, 0.99} {
		if got := NewEngine(g).gridSize; got != DefaultGridSize {
			t.Errorf("NewEngine(%v).gridSize = %v, want %v", g, got, DefaultGridSize)
		}
	}
	if got := NewEngine(1).gridSize; got != 1 {
		t.Errorf("NewEngine(1).gridSize = %v, want 1", got)
	}
}

func TestNextPosition_CandidateLimitFallsBelow(t *testing.T) {
	e := NewEngine(1)
	existing := []Element{el(0, 0, MaxRowW, 3000)}
	x, y := e.NextPosition(existing, 200, 50)
	if x != 0 || y != 3020 {
		t.Errorf("expected (0, 3020), got (%.0f, %.0f)", x, y)
	}
}
