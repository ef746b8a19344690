// Package geometry provides the rectangle, range, and direction primitives
// shared by every stage of the MICR pipeline.
package geometry

import "math"

// Point is an integer pixel coordinate, origin top-left, X rightward, Y downward.
type Point struct {
	X, Y int
}

// Rect is a half-inclusive rectangle: [X, X+Width) x [Y, Y+Height). Storing
// X/Y/Width/Height (rather than two corner points) makes the half-open and
// closed forms round-trip for free: ClosedMaxX = X+Width-1, and
// Width = ClosedMaxX - X + 1 always holds.
type Rect struct {
	X, Y, Width, Height int
}

// NewRect builds a Rect from a half-open span.
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectFromClosed builds a Rect from an inclusive [minX,maxX] x [minY,maxY] span.
func RectFromClosed(minX, minY, maxX, maxY int) Rect {
	return Rect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// Closed returns the inclusive max corner (maxX, maxY) of the rectangle.
func (r Rect) Closed() (maxX, maxY int) {
	return r.X + r.Width - 1, r.Y + r.Height - 1
}

// MaxX returns the exclusive right edge, X+Width.
func (r Rect) MaxX() int { return r.X + r.Width }

// MaxY returns the exclusive bottom edge, Y+Height.
func (r Rect) MaxY() int { return r.Y + r.Height }

// Area returns Width*Height, 0 for an empty rectangle.
func (r Rect) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// CenterX returns the horizontal midpoint.
func (r Rect) CenterX() float64 {
	return float64(r.X) + float64(r.Width)/2
}

// CenterY returns the vertical midpoint.
func (r Rect) CenterY() float64 {
	return float64(r.Y) + float64(r.Height)/2
}

// XRange returns the rectangle's horizontal extent as a MinMax.
func (r Rect) XRange() MinMax {
	return MinMax{Min: float64(r.X), Max: float64(r.MaxX())}
}

// YRange returns the rectangle's vertical extent as a MinMax.
func (r Rect) YRange() MinMax {
	return MinMax{Min: float64(r.Y), Max: float64(r.MaxY())}
}

// Contains reports whether other lies entirely inside r. Reflexive: r.Contains(r)
// is always true.
func (r Rect) Contains(other Rect) bool {
	if other.Empty() {
		return r.X <= other.X && r.Y <= other.Y && other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
	}
	return other.X >= r.X && other.Y >= r.Y && other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
}

// ContainsPoint reports whether p lies inside r (half-open).
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Intersects reports whether r and other overlap. Symmetric:
// r.Intersects(other) == other.Intersects(r).
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.X < other.MaxX() && other.X < r.MaxX() &&
		r.Y < other.MaxY() && other.Y < r.MaxY()
}

// IntersectsY reports whether the two rectangles' Y-ranges overlap, used
// throughout the line builder's Y-intersect tests.
func (r Rect) IntersectsY(other Rect) bool {
	return r.YRange().Intersects(other.YRange())
}

// Intersection returns the overlapping rectangle and whether one exists.
func (r Rect) Intersection(other Rect) (Rect, bool) {
	if !r.Intersects(other) {
		return Rect{}, false
	}
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.MaxX(), other.MaxX())
	y1 := min(r.MaxY(), other.MaxY())
	return NewRect(x0, y0, x1-x0, y1-y0), true
}

// Union returns the smallest rectangle containing both r and other. An empty
// operand is ignored so Union can be folded over a slice starting from the
// zero Rect.
func (r Rect) Union(other Rect) Rect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x0 := min(r.X, other.X)
	y0 := min(r.Y, other.Y)
	x1 := max(r.MaxX(), other.MaxX())
	y1 := max(r.MaxY(), other.MaxY())
	return NewRect(x0, y0, x1-x0, y1-y0)
}

// Pad grows the rectangle by pad on every side, clamping the lower bound to 0
// and the upper bound to (maxW, maxH). See the line builder's containment_pad
// for the deliberately one-sided variant (padY).
func (r Rect) Pad(pad, maxW, maxH int) Rect {
	x0 := max(0, r.X-pad)
	y0 := max(0, r.Y-pad)
	x1 := min(maxW, r.MaxX()+pad)
	y1 := min(maxH, r.MaxY()+pad)
	return NewRect(x0, y0, x1-x0, y1-y0)
}

// ClampToImage clips r to [0,w) x [0,h), returning an empty rect if nothing
// remains.
func (r Rect) ClampToImage(w, h int) Rect {
	x0 := max(0, r.X)
	y0 := max(0, r.Y)
	x1 := min(w, r.MaxX())
	y1 := min(h, r.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return NewRect(x0, y0, x1-x0, y1-y0)
}

// MinMax is a closed numeric interval [Min, Max].
type MinMax struct {
	Min, Max float64
}

// Len returns the interval's length, Max-Min.
func (m MinMax) Len() float64 {
	return m.Max - m.Min
}

// Contains reports whether v lies in [Min, Max].
func (m MinMax) Contains(v float64) bool {
	return v >= m.Min && v <= m.Max
}

// Intersects reports whether the two closed intervals overlap.
func (m MinMax) Intersects(other MinMax) bool {
	return m.Min <= other.Max && other.Min <= m.Max
}

// Clamp restricts v to [Min, Max].
func (m MinMax) Clamp(v float64) float64 {
	if v < m.Min {
		return m.Min
	}
	if v > m.Max {
		return m.Max
	}
	return v
}

// FractionIntersects returns the fraction of a's length that overlaps with b,
// i.e. overlapLen(a,b) / len(a). Returns 0 for a degenerate (zero-length) a.
func FractionIntersects(a, b MinMax) float64 {
	if a.Len() <= 0 {
		return 0
	}
	lo := math.Max(a.Min, b.Min)
	hi := math.Min(a.Max, b.Max)
	overlap := hi - lo
	if overlap <= 0 {
		return 0
	}
	return overlap / a.Len()
}

// XDistance returns the horizontal gap between a and b (b to the right of a):
// b.X - a.MaxX(). Negative or zero means the rectangles touch or overlap on X.
func XDistance(a, b Rect) int {
	return b.X - a.MaxX()
}

// YDistance returns the vertical gap between a and b analogous to XDistance.
func YDistance(a, b Rect) int {
	return b.Y - a.MaxY()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
