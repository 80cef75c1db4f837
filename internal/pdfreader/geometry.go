package pdfreader

import "math"

// Rect is an axis-aligned rectangle in page coordinates with the origin at
// the top-left corner, so Y0 grows downward along the reading direction.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the rectangle area, or 0 for degenerate rectangles.
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Overlaps reports whether the two rectangles intersect.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.X1 < o.X0 || r.X0 > o.X1 || r.Y1 < o.Y0 || r.Y0 > o.Y1)
}

// OverlapRatio returns the fraction of r's area that lies within o.
// It is asymmetric: a small r fully inside a large o yields 1.0.
func (r Rect) OverlapRatio(o Rect) float64 {
	x0 := math.Max(r.X0, o.X0)
	y0 := math.Max(r.Y0, o.Y0)
	x1 := math.Min(r.X1, o.X1)
	y1 := math.Min(r.Y1, o.Y1)
	if x1 < x0 || y1 < y0 {
		return 0
	}
	area := r.Area()
	if area == 0 {
		return 0
	}
	return (x1 - x0) * (y1 - y0) / area
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}
