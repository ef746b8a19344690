package overlap

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/geometry"
)

// Crossing is the seed pair produced by a successful intersection crossing
// (spec.md §4.6.2 step 4): the left and right perpendicular probe points
// that start the next Curve section.
type Crossing struct {
	Left, Right geometry.Point
	Found       bool
}

// AttemptCross implements spec.md §4.6.2. e is the Edge that halted at an
// intersection; it is assumed e.Trail has at least one point.
func AttemptCross(arena *Arena, bin gocv.Mat, roi image.Rectangle, e, other *Edge, params Params, charWidth int) Crossing {
	// Step 1: walk backward up to MaxStepsBack points, tracking the
	// smallest degreeDelta against the other edge's current direction.
	backSteps := params.MaxStepsBack
	if backSteps > len(e.Trail)-1 {
		backSteps = len(e.Trail) - 1
	}

	otherDeg := other.Degree(arena)
	bestIdx := len(e.Trail) - 1
	bestDelta := math.Inf(1)
	for i := 0; i <= backSteps; i++ {
		idx := len(e.Trail) - 1 - i
		window := e.Trail[max0(idx-3):idx+1]
		var pts []geometry.Point
		for _, id := range window {
			pts = append(pts, arena.At(id))
		}
		deg := geometry.ComputeDegree(pts)
		delta := geometry.DegreeDelta(deg, otherDeg)
		if delta < bestDelta {
			bestDelta = delta
			bestIdx = idx
		}
		if delta < params.GoodSmallDelta {
			bestIdx = idx
			break
		}
	}

	anchor := arena.At(e.Trail[bestIdx])
	anchorDeg := edgeDegreeAt(arena, e, bestIdx)

	// Step 2: midpoint with the nearest point on the other edge, and the
	// wrap-aware average direction.
	nearest := nearestPoint(arena, other, anchor)
	mid := geometry.Point{X: (anchor.X + nearest.X) / 2, Y: (anchor.Y + nearest.Y) / 2}
	nearestDeg := edgeDegreeNear(arena, other, nearest)
	avgDeg := averageDirection(anchorDeg, nearestDeg)

	// Step 3: walk forward smallest_steps + probe_start_steps using the
	// 8-neighbour direction-walker.
	steps := (len(e.Trail) - 1 - bestIdx) + params.ProbeStartSteps
	cur := mid
	ok := true
	for i := 0; i < steps; i++ {
		dirIdx := nearestDirection(avgDeg)
		off := dirOffsets[dirIdx]
		next := geometry.Point{X: cur.X + off.X, Y: cur.Y + off.Y}
		if !inBounds(next, roi) || !setAt(bin, next) {
			ok = false
			break
		}
		cur = next
	}
	if !ok {
		return Crossing{}
	}

	// Step 4: probe perpendicular for up to MaxForwardProbes forward steps.
	maxPerp := int(math.Ceil(float64(charWidth) * 1.1))
	for step := 0; step < params.MaxForwardProbes; step++ {
		leftPt, leftOK := probePerpendicular(bin, roi, cur, avgDeg-90, maxPerp)
		rightPt, rightOK := probePerpendicular(bin, roi, cur, avgDeg+90, maxPerp)
		if leftOK && rightOK {
			return Crossing{Left: leftPt, Right: rightPt, Found: true}
		}
		dirIdx := nearestDirection(avgDeg)
		off := dirOffsets[dirIdx]
		next := geometry.Point{X: cur.X + off.X, Y: cur.Y + off.Y}
		if !inBounds(next, roi) || !setAt(bin, next) {
			break
		}
		cur = next
	}
	return Crossing{}
}

func inBounds(p geometry.Point, roi image.Rectangle) bool {
	return p.X >= roi.Min.X && p.X < roi.Max.X && p.Y >= roi.Min.Y && p.Y < roi.Max.Y
}

// probePerpendicular walks from p along deg up to maxSteps pixels and
// returns the first unset pixel found.
func probePerpendicular(bin gocv.Mat, roi image.Rectangle, p geometry.Point, deg float64, maxSteps int) (geometry.Point, bool) {
	dirIdx := nearestDirection(normalize360(deg))
	off := dirOffsets[dirIdx]
	cur := p
	for i := 0; i < maxSteps; i++ {
		cur = geometry.Point{X: cur.X + off.X, Y: cur.Y + off.Y}
		if !inBounds(cur, roi) {
			return geometry.Point{}, false
		}
		if !setAt(bin, cur) {
			return cur, true
		}
	}
	return geometry.Point{}, false
}

func normalize360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// averageDirection averages two degree values, handling the wrap case
// spec.md §4.6.2 names: if the raw difference exceeds 180, add 180 before
// halving so the mean takes the short way around the circle.
func averageDirection(a, b float64) float64 {
	if math.Abs(a-b) > 180 {
		return normalize360((a+b)/2 + 180)
	}
	return normalize360((a + b) / 2)
}

func edgeDegreeAt(arena *Arena, e *Edge, idx int) float64 {
	window := e.Trail[max0(idx-3) : idx+1]
	var pts []geometry.Point
	for _, id := range window {
		pts = append(pts, arena.At(id))
	}
	return geometry.ComputeDegree(pts)
}

func edgeDegreeNear(arena *Arena, e *Edge, p geometry.Point) float64 {
	idx := nearestTrailIndex(arena, e, p)
	return edgeDegreeAt(arena, e, idx)
}

func nearestPoint(arena *Arena, e *Edge, p geometry.Point) geometry.Point {
	idx := nearestTrailIndex(arena, e, p)
	return arena.At(e.Trail[idx])
}

func nearestTrailIndex(arena *Arena, e *Edge, p geometry.Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i, id := range e.Trail {
		q := arena.At(id)
		dx, dy := float64(p.X-q.X), float64(p.Y-q.Y)
		d := dx*dx + dy*dy
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
