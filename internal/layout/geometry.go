// Package layout holds the page geometry used to associate form widgets with
// the printed text that labels them.
//
// All rectangles use a top-left page origin with y growing downward, in PDF
// points. Adapters for PDF-native (bottom-left) coordinates flip into this
// space before handing geometry to the package.
package layout

import "math"

// Rect is an axis-aligned box. X0/Y0 is the top-left corner, X1/Y1 the
// bottom-right one.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRect builds a normalized rectangle from two arbitrary corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// CenterY returns the vertical center of r.
func (r Rect) CenterY() float64 { return (r.Y0 + r.Y1) / 2 }

// IsEmpty reports whether r has no area. Widgets without a usable /Rect
// are empty.
func (r Rect) IsEmpty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Union returns the smallest rectangle containing both r and o. An empty
// zero Rect on either side is ignored.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Intersects reports whether r and o share a region of non-zero area.
func (r Rect) Intersects(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Expand grows r by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		X0: r.X0 - margin,
		Y0: r.Y0 - margin,
		X1: r.X1 + margin,
		Y1: r.Y1 + margin,
	}
}
