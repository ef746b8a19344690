// Package line implements spec.md §4.5: building the MICR text line outward
// from the anchor contour by a neighbour sweep, then recovering
// overlap-merged characters by projection. Grounded on
// internal/trace/walk.go's FloodFillCopper, the teacher's one genuinely
// similar algorithm shape: start from a seed, repeatedly accept or reject a
// next candidate against a geometric test, and track auxiliary state
// (min_x_gap here, the visited set there) as you walk.
package line

import (
	"math"
	"sort"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
)

// Thresholds are the per-line values derived from the anchor contour's
// rectangle (spec.md §4.5).
type Thresholds struct {
	MinArea   float64
	MaxArea   float64
	MinHeight float64
	MaxWidth  int
	MaxHeight int

	ContainmentPad             int
	MinHorizontalRun           int
	MinVerticalRun             int
	VerticalThicknessThreshold int
}

// DeriveThresholds computes spec.md §4.5's fixed ratios against the anchor
// contour's rectangle.
func DeriveThresholds(anchor *contour.Contour) Thresholds {
	area := anchor.FilledArea
	h := float64(anchor.Rect.Height)
	w := float64(anchor.Rect.Width)
	return Thresholds{
		MinArea:                    0.47 * area,
		MaxArea:                    1.25 * area,
		MinHeight:                  0.9 * h,
		MaxWidth:                   anchor.Rect.Width,
		MaxHeight:                  anchor.Rect.Height,
		ContainmentPad:             int(math.Round(0.25 * h)),
		MinHorizontalRun:           int(math.Round(0.3 * w)),
		MinVerticalRun:             int(math.Round(0.3 * h)),
		VerticalThicknessThreshold: int(math.Round(0.25 * h)),
	}
}

// Line is the ordered run of contours making up the MICR text band.
type Line struct {
	Anchor   *contour.Contour
	Contours []*contour.Contour // sorted ascending by X
	Rect     geometry.Rect
	Overlap  bool
	Thresh   Thresholds
}

// Build runs the neighbour sweep (§4.5.1) followed by projection recovery
// (§4.5.2) and returns the assembled Line.
func Build(anchor *contour.Contour, all []*contour.Contour, imgW, imgH int) *Line {
	th := DeriveThresholds(anchor)

	sorted := make([]*contour.Contour, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rect.X < sorted[j].Rect.X })

	onLine, holding, minXGap := neighbourSweep(anchor, sorted, th, imgW, imgH)

	l := &Line{Anchor: anchor, Contours: onLine, Thresh: th}
	l.recomputeRect()

	recovered := projectionRecovery(l, holding, minXGap, imgW, imgH)
	if recovered {
		l.Overlap = true
	}
	l.recomputeRect()
	return l
}

// neighbourSweep implements §4.5.1: starting from anchor, walk left and
// right maintaining lc, Y-intersect testing and containment classification
// against each candidate in X order.
func neighbourSweep(anchor *contour.Contour, sortedByX []*contour.Contour, th Thresholds, imgW, imgH int) (onLine []*contour.Contour, holding []*contour.Contour, minXGap int) {
	anchorIdx := -1
	for i, c := range sortedByX {
		if c == anchor {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		return []*contour.Contour{anchor}, nil, 0
	}

	onLineSet := map[*contour.Contour]bool{anchor: true}
	onLine = append(onLine, anchor)

	minXGap = math.MaxInt32
	haveGap := false

	accept := func(lc, c *contour.Contour) bool {
		if !lc.Rect.IntersectsY(c.Rect) {
			return false
		}
		padded := padY(lc.Rect, th.ContainmentPad, imgH)
		if c.Rect.Width > int(1.25*float64(th.MaxWidth)) {
			return false
		}
		return padded.YRange().Contains(float64(c.Rect.Y)) && padded.YRange().Contains(float64(c.Rect.MaxY()))
	}

	// Walk right.
	lc := anchor
	for i := anchorIdx + 1; i < len(sortedByX); i++ {
		c := sortedByX[i]
		if !lc.Rect.IntersectsY(c.Rect) {
			holding = append(holding, c)
			continue
		}
		if !accept(lc, c) {
			holding = append(holding, c)
			continue
		}
		size := contour.ClassifySize(c, th.MinArea, th.MinHeight, th.MaxArea)
		if size == contour.SizeMedium {
			gap := c.Rect.X - lc.Rect.MaxX()
			if gap < minXGap {
				minXGap = gap
				haveGap = true
			}
			lc = c
		}
		onLineSet[c] = true
		onLine = append(onLine, c)
	}

	// Walk left.
	lc = anchor
	for i := anchorIdx - 1; i >= 0; i-- {
		c := sortedByX[i]
		if !lc.Rect.IntersectsY(c.Rect) {
			holding = append(holding, c)
			continue
		}
		if !accept(lc, c) {
			holding = append(holding, c)
			continue
		}
		size := contour.ClassifySize(c, th.MinArea, th.MinHeight, th.MaxArea)
		if size == contour.SizeMedium {
			gap := lc.Rect.X - c.Rect.MaxX()
			if gap < minXGap {
				minXGap = gap
				haveGap = true
			}
			lc = c
		}
		onLineSet[c] = true
		onLine = append(onLine, c)
	}

	if !haveGap {
		minXGap = 0
	}

	sort.Slice(onLine, func(i, j int) bool { return onLine[i].Rect.X < onLine[j].Rect.X })
	return onLine, holding, minXGap
}

// padY pads a rectangle's Y-range by pad, clipped to [0, imgH), leaving X
// untouched -- spec.md's containment_pad is deliberately one-sided
// (vertical-only), unlike geometry.Rect.Pad's symmetric four-side grow.
func padY(r geometry.Rect, pad, imgH int) geometry.Rect {
	y0 := r.Y - pad
	if y0 < 0 {
		y0 = 0
	}
	y1 := r.MaxY() + pad
	if y1 >= imgH {
		y1 = imgH - 1
	}
	return geometry.RectFromClosed(r.X, y0, r.MaxX(), y1)
}

// projectionRecovery implements §4.5.2. Returns whether any insertion
// occurred across all iterations.
func projectionRecovery(l *Line, holding []*contour.Contour, minXGap, imgW, imgH int) bool {
	anyInsertion := false
	remaining := holding

	for iter := 0; iter < 10; iter++ {
		sort.Slice(l.Contours, func(i, j int) bool { return l.Contours[i].Rect.X < l.Contours[j].Rect.X })

		projections := emitProjections(l, minXGap, imgW, imgH)
		if len(projections) == 0 {
			break
		}

		insertedThisRound := false
		var stillHolding []*contour.Contour
		for _, c := range remaining {
			inserted := false
			for _, p := range projections {
				if c.Rect.Intersects(p) {
					restricted := contour.RestrictToRect(c, p)
					restricted.OverlapAdjusted = true
					restricted.Size = contour.ClassifySize(restricted, l.Thresh.MinArea, l.Thresh.MinHeight, l.Thresh.MaxArea)
					l.Contours = append(l.Contours, restricted)
					insertedThisRound = true
					anyInsertion = true
					inserted = true
					break
				}
			}
			if !inserted {
				stillHolding = append(stillHolding, c)
			}
		}
		remaining = stillHolding

		if !insertedThisRound {
			break
		}
	}

	return anyInsertion
}

// emitProjections walks the current on-line contours left-to-right and
// right-to-left, emitting a max_width x max_height rectangle wherever the
// X-gap between successive contours exceeds max_width + min_x_gap. Each
// projection is placed at last_medium_y: the Y of the nearest Medium
// contour already passed in that walk's direction, so a projection tracks
// the local baseline instead of one line-wide constant (§4.5.2 — needed to
// cope with curved baselines). A projection that would leave the image or
// overlap an already-emitted one is dropped.
func emitProjections(l *Line, minXGap, imgW, imgH int) []geometry.Rect {
	var projections []geometry.Rect
	threshold := l.Thresh.MaxWidth + minXGap
	pad := int(math.Round(1.3 * float64(minXGap)))

	isMedium := func(c *contour.Contour) bool {
		return contour.ClassifySize(c, l.Thresh.MinArea, l.Thresh.MinHeight, l.Thresh.MaxArea) == contour.SizeMedium
	}

	tryEmit := func(x, y int) {
		r := geometry.NewRect(x, y, l.Thresh.MaxWidth, l.Thresh.MaxHeight)
		if r.X < 0 || r.Y < 0 || r.MaxX() >= imgW || r.MaxY() >= imgH {
			return
		}
		for _, p := range projections {
			if r.Intersects(p) {
				return
			}
		}
		projections = append(projections, r)
	}

	// Left-to-right: each gap is filled at the Y of the nearest Medium
	// contour already passed walking forward.
	lastMedianY := l.Anchor.Rect.Y
	for i, cur := range l.Contours {
		if isMedium(cur) {
			lastMedianY = cur.Rect.Y
		}
		if i == 0 {
			continue
		}
		prev := l.Contours[i-1]
		if gap := cur.Rect.X - prev.Rect.MaxX(); gap > threshold {
			tryEmit(prev.Rect.MaxX()+pad, lastMedianY)
		}
	}

	// Right-to-left: the same gaps, but placed at the Y of the nearest
	// Medium contour already passed walking backward.
	lastMedianY = l.Anchor.Rect.Y
	for i := len(l.Contours) - 1; i >= 0; i-- {
		cur := l.Contours[i]
		if isMedium(cur) {
			lastMedianY = cur.Rect.Y
		}
		if i == len(l.Contours)-1 {
			continue
		}
		next := l.Contours[i+1]
		if gap := next.Rect.X - cur.Rect.MaxX(); gap > threshold {
			tryEmit(next.Rect.X-l.Thresh.MaxWidth-pad, lastMedianY)
		}
	}

	if len(l.Contours) > 0 {
		edgeY := l.Anchor.Rect.Y
		for _, c := range l.Contours {
			if isMedium(c) {
				edgeY = c.Rect.Y
				break
			}
		}
		first := l.Contours[0]
		tryEmit(first.Rect.X-l.Thresh.MaxWidth-pad, edgeY)
	}

	return projections
}

func (l *Line) recomputeRect() {
	var r geometry.Rect
	for _, c := range l.Contours {
		r = r.Union(c.Rect)
	}
	l.Rect = r
}
