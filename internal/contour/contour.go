// Package contour extracts connected-component bounding rectangles from a
// binarized raster and filters them by size/area/border (spec.md §4.3).
// Grounded on internal/alignment/contact_bounds.go and contact_edge.go's
// repeated FindContours -> ContourArea -> BoundingRect sequence.
package contour

import (
	"sort"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/geometry"
)

// Size classifies a contour against a Line's derived area/height thresholds
// (spec.md §4.5).
type Size int

const (
	SizeUnknown Size = iota
	SizeSmall
	SizeMedium
	SizeLarge
)

func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "unknown"
	}
}

// Border names one edge of the image, used by the extractor's
// forbidden-border filter.
type Border int

const (
	BorderTop Border = iota
	BorderBottom
	BorderLeft
	BorderRight
)

// Contour is a connected-component region plus its derived geometry
// (spec.md §3).
type Contour struct {
	Index int

	Points []geometry.Point // polyline vertices, image coordinates
	Rect   geometry.Rect

	FilledArea float64 // vertex-area (shoelace formula over Points)
	RectArea   int

	Size Size

	InLine          bool
	OverlapAdjusted bool

	// Orig preserves the rectangle this contour had before a §4.5.3
	// restriction to a projection rectangle, for debugging.
	Orig *geometry.Rect
}

// MidX returns the contour rectangle's horizontal midpoint. The pipeline's
// left-to-right sorts order contours by Rect.X, not by MidX.
func (c *Contour) MidX() float64 { return c.Rect.CenterX() }

// Clone returns a deep copy of c, safe to mutate independently (used by
// line/character restriction, which clones before shrinking a contour to a
// projection rectangle).
func (c *Contour) Clone() *Contour {
	cp := *c
	cp.Points = append([]geometry.Point(nil), c.Points...)
	if c.Orig != nil {
		o := *c.Orig
		cp.Orig = &o
	}
	return &cp
}

// FilterParams bounds what the extractor keeps (spec.md §4.3).
type FilterParams struct {
	MinWidth, MaxWidth   int // 0 means unbounded
	MinHeight, MaxHeight int
	MinArea, MaxArea     float64
	ForbiddenBorders     map[Border]bool
}

// Extract finds external, polygonally-approximated contours on a binarized
// Mat (foreground = bright, per spec.md §3's polarity invariant) and
// computes each one's derived geometry, without filtering.
func Extract(bin gocv.Mat) []*Contour {
	found := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	out := make([]*Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		rect := gocv.BoundingRect(pv)
		area := gocv.ContourArea(pv)

		points := make([]geometry.Point, pv.Size())
		for j := 0; j < pv.Size(); j++ {
			p := pv.At(j)
			points[j] = geometry.Point{X: p.X, Y: p.Y}
		}

		r := geometry.NewRect(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		out = append(out, &Contour{
			Points:     points,
			Rect:       r,
			FilledArea: area,
			RectArea:   r.Area(),
		})
	}
	return out
}

// Filter discards contours failing any specified bound or touching a
// forbidden border, then sorts survivors strictly ascending by rectangle X
// and assigns dense indices.
func Filter(contours []*Contour, params FilterParams, imgW, imgH int) []*Contour {
	survivors := make([]*Contour, 0, len(contours))
	for _, c := range contours {
		if failsBounds(c, params) {
			continue
		}
		if touchesForbiddenBorder(c, params.ForbiddenBorders, imgW, imgH) {
			continue
		}
		survivors = append(survivors, c)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Rect.X < survivors[j].Rect.X
	})
	for i, c := range survivors {
		c.Index = i
	}
	return survivors
}

func failsBounds(c *Contour, p FilterParams) bool {
	if p.MinWidth > 0 && c.Rect.Width < p.MinWidth {
		return true
	}
	if p.MaxWidth > 0 && c.Rect.Width > p.MaxWidth {
		return true
	}
	if p.MinHeight > 0 && c.Rect.Height < p.MinHeight {
		return true
	}
	if p.MaxHeight > 0 && c.Rect.Height > p.MaxHeight {
		return true
	}
	if p.MinArea > 0 && c.FilledArea < p.MinArea {
		return true
	}
	if p.MaxArea > 0 && c.FilledArea > p.MaxArea {
		return true
	}
	return false
}

func touchesForbiddenBorder(c *Contour, forbidden map[Border]bool, imgW, imgH int) bool {
	if len(forbidden) == 0 {
		return false
	}
	if forbidden[BorderLeft] && c.Rect.X <= 0 {
		return true
	}
	if forbidden[BorderTop] && c.Rect.Y <= 0 {
		return true
	}
	if forbidden[BorderRight] && c.Rect.MaxX() >= imgW {
		return true
	}
	if forbidden[BorderBottom] && c.Rect.MaxY() >= imgH {
		return true
	}
	return false
}

// ClassifySize buckets a contour against a line's derived thresholds
// (spec.md §4.5: Small / Medium / Large against min_area, min_height,
// max_area).
func ClassifySize(c *Contour, minArea, minHeight, maxArea float64) Size {
	switch {
	case c.FilledArea < minArea || float64(c.Rect.Height) < minHeight:
		return SizeSmall
	case c.FilledArea > maxArea:
		return SizeLarge
	default:
		return SizeMedium
	}
}

// RestrictToRect clones c and shrinks it to the tightest rectangle around
// the vertices of c that fall inside bound (spec.md §4.5.3, option (b):
// iterate the contour's own vertex list). Width/height are clamped to >= 1.
// The clone's Orig field preserves c's original rectangle.
func RestrictToRect(c *Contour, bound geometry.Rect) *Contour {
	clone := c.Clone()
	orig := c.Rect
	clone.Orig = &orig

	var kept []geometry.Point
	for _, p := range c.Points {
		if p.X >= bound.X && p.X < bound.MaxX() && p.Y >= bound.Y && p.Y < bound.MaxY() {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		// Nothing of the contour actually falls inside bound; fall back to
		// the geometric intersection of the two rectangles.
		inter, ok := c.Rect.Intersection(bound)
		if !ok {
			inter = geometry.NewRect(bound.X, bound.Y, 1, 1)
		}
		clone.Points = nil
		clone.Rect = clampRectMin1(inter)
		clone.FilledArea = float64(clone.Rect.Area())
		clone.RectArea = clone.Rect.Area()
		return clone
	}

	minX, minY := kept[0].X, kept[0].Y
	maxX, maxY := kept[0].X, kept[0].Y
	for _, p := range kept[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	r := geometry.RectFromClosed(minX, minY, maxX, maxY)
	r = clampRectMin1(r)

	clone.Points = kept
	clone.Rect = r
	clone.RectArea = r.Area()
	clone.FilledArea = shoelaceArea(kept)
	if clone.FilledArea <= 0 {
		clone.FilledArea = 1
	}
	return clone
}

func clampRectMin1(r geometry.Rect) geometry.Rect {
	w, h := r.Width, r.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return geometry.NewRect(r.X, r.Y, w, h)
}

// shoelaceArea computes the vertex-area of a (possibly unordered, but
// typically scan-ordered) point set via the shoelace formula.
func shoelaceArea(points []geometry.Point) float64 {
	if len(points) < 3 {
		return float64(len(points))
	}
	var sum float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(points[i].X)*float64(points[j].Y) - float64(points[j].X)*float64(points[i].Y)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
