// internal/geometry/rect.go
package geometry

// Rect is an axis-aligned pixel rectangle with inclusive bounds.
type Rect struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() int { return r.MaxX - r.MinX }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() int { return r.MaxY - r.MinY }

// Clamp constrains the point (x, y) to lie within the rectangle.
// Each axis is clamped independently.
func (r Rect) Clamp(x, y int) (int, int) {
	if x < r.MinX {
		x = r.MinX
	} else if x > r.MaxX {
		x = r.MaxX
	}
	if y < r.MinY {
		y = r.MinY
	} else if y > r.MaxY {
		y = r.MaxY
	}
	return x, y
}

// Contains reports whether the point (x, y) lies within the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// BoundingBox is a detection rectangle in device pixels: top-left corner plus
// width and height.
type BoundingBox struct {
	X, Y int
	W, H int
}

// Center returns the geometric center of the box.
func (b BoundingBox) Center() Vector2D {
	return Vector2D{
		X: float64(b.X) + float64(b.W)/2.0,
		Y: float64(b.Y) + float64(b.H)/2.0,
	}
}
