package overlap

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/geometry"
)

// Sense is an Edge's rotational direction.
type Sense int

const (
	Clockwise Sense = iota
	CounterClockwise
)

// Params configures the curve follower (spec.md §4.6.1/§4.6.2's named
// constants).
type Params struct {
	MaxDelta         float64 // default 20
	MaxStepsBack     int     // default 4
	GoodSmallDelta   float64 // default 15
	ProbeStartSteps  int     // default 2
	MaxForwardProbes int     // default 20
}

// DefaultParams returns spec.md §4.6.1/§4.6.2's fixed constants.
func DefaultParams() Params {
	return Params{
		MaxDelta:         20,
		MaxStepsBack:     4,
		GoodSmallDelta:   15,
		ProbeStartSteps:  2,
		MaxForwardProbes: 20,
	}
}

// Edge is one side of a Curve: a trail of points walked in one rotational
// sense from a shared top-border seed.
type Edge struct {
	Sense  Sense
	Trail  []PointID
	CameIn int  // direction index the edge entered its last point from, or -1 at the seed
	Halted bool
}

// Curve is the two Edges seeded from one top-border ink run, followed
// downward until they halt, meet, or cross another curve's ink.
type Curve struct {
	CW  *Edge
	CCW *Edge
}

// NewCurve seeds a Curve's two Edges at opposite ends of one top-border ink
// run (spec.md §4.6.1: "left end, right end"), so CW and CCW trace the two
// sides of the stroke downward and together bound the ink between them.
func NewCurve(arena *Arena, cwSeed, ccwSeed geometry.Point) *Curve {
	cwID := arena.Add(cwSeed)
	ccwID := arena.Add(ccwSeed)
	return &Curve{
		CW:  &Edge{Sense: Clockwise, Trail: []PointID{cwID}, CameIn: -1},
		CCW: &Edge{Sense: CounterClockwise, Trail: []PointID{ccwID}, CameIn: -1},
	}
}

// Last returns the Edge's most recent point.
func (e *Edge) Last(arena *Arena) geometry.Point {
	return arena.At(e.Trail[len(e.Trail)-1])
}

// Degree returns the least-squares direction of the window around the
// Edge's last point: one point before, three after in the spec's default,
// which for a forward-only trail collapses to "last four points walked".
func (e *Edge) Degree(arena *Arena) float64 {
	n := len(e.Trail)
	lo := n - 4
	if lo < 0 {
		lo = 0
	}
	var pts []geometry.Point
	for i := lo; i < n; i++ {
		pts = append(pts, arena.At(e.Trail[i]))
	}
	return geometry.ComputeDegree(pts)
}

// isEdgePoint reports whether p is set in bin and has at least one unset
// 8-neighbour within roi.
func isEdgePoint(bin gocv.Mat, roi image.Rectangle, p geometry.Point) bool {
	if !setAt(bin, p) {
		return false
	}
	for _, d := range dirOffsets {
		n := geometry.Point{X: p.X + d.X, Y: p.Y + d.Y}
		if n.X < roi.Min.X || n.X >= roi.Max.X || n.Y < roi.Min.Y || n.Y >= roi.Max.Y {
			continue
		}
		if !setAt(bin, n) {
			return true
		}
	}
	return false
}

func setAt(bin gocv.Mat, p geometry.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= bin.Cols() || p.Y >= bin.Rows() {
		return false
	}
	return bin.GetUCharAt(p.Y, p.X) != 0
}

// haltReason distinguishes why an Edge's step failed, so Follow can decide
// whether an intersection crossing attempt applies (spec.md §4.6.2 only
// fires on the degreeDelta halt, not on a dead end or the edges meeting).
type haltReason int

const (
	haltNone haltReason = iota
	haltDeadEnd
	haltEdgesMet
	haltIntersection
)

// step advances e by one point, returning false and the reason if the Edge
// halts (no next edge point, or the candidate would meet other's last
// point, or the local degreeDelta against other's Degree exceeds
// params.MaxDelta once the walk has left the entry border).
func (e *Edge) step(arena *Arena, bin gocv.Mat, roi image.Rectangle, other *Edge, params Params, leftBorder bool) (bool, haltReason) {
	cur := e.Last(arena)

	rotStep := 1
	if e.Sense == CounterClockwise {
		rotStep = -1
	}
	startDir := 0
	if e.CameIn >= 0 {
		startDir = rotate(opposite(e.CameIn), rotStep)
	}

	for i := 0; i < 8; i++ {
		dir := rotate(startDir, rotStep*i)
		off := dirOffsets[dir]
		cand := geometry.Point{X: cur.X + off.X, Y: cur.Y + off.Y}
		if cand.X < roi.Min.X || cand.X >= roi.Max.X || cand.Y < roi.Min.Y || cand.Y >= roi.Max.Y {
			continue
		}
		if !isEdgePoint(bin, roi, cand) {
			continue
		}

		if len(other.Trail) > 0 && cand == other.Last(arena) {
			e.Halted = true
			other.Halted = true
			return false, haltEdgesMet
		}

		if leftBorder {
			delta := geometry.DegreeDelta(e.Degree(arena), other.Degree(arena))
			if delta > params.MaxDelta {
				e.Halted = true
				return false, haltIntersection
			}
		}

		id := arena.Add(cand)
		e.Trail = append(e.Trail, id)
		e.CameIn = dir
		return true, haltNone
	}

	e.Halted = true
	return false, haltDeadEnd
}

// tryCross attempts spec.md §4.6.2's intersection crossing when e halted on
// a degreeDelta gate. charWidth approximates the neighbouring character
// width as one eighth of the ROI's width, since the overlap
// corrector has no direct access to the line's character statistics at this
// point in the walk. On success e resumes from the near-side crossing seed.
func tryCross(arena *Arena, bin gocv.Mat, roi image.Rectangle, e, other *Edge, params Params) {
	charWidth := roi.Dx() / 8
	if charWidth < 1 {
		charWidth = 1
	}
	crossing := AttemptCross(arena, bin, roi, e, other, params, charWidth)
	if !crossing.Found {
		return
	}
	seed := crossing.Right
	if e.Sense == CounterClockwise {
		seed = crossing.Left
	}
	id := arena.Add(seed)
	e.Trail = append(e.Trail, id)
	e.CameIn = -1
	e.Halted = false
}

// distanceToOtherIncreased reports whether e's last point has moved farther
// from other's last point since the previous step (spec.md §4.6.1's pacing
// rule: pause an Edge that is pulling ahead so the other can catch up).
func distanceToOtherIncreased(arena *Arena, e, other *Edge, prevDist float64) (float64, bool) {
	a := e.Last(arena)
	b := other.Last(arena)
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	d := math.Hypot(dx, dy)
	return d, d > prevDist
}

// Follow alternates stepping c's two Edges until both halt, implementing
// spec.md §4.6.1's follow loop. Steps never leave roi. The "outside the
// learning region" gate in the spec is treated here as "the Edge's last
// point lies below topBorderY" (Correct passes the ROI's top row), tracked
// via leftBorder.
func Follow(arena *Arena, bin gocv.Mat, roi image.Rectangle, c *Curve, params Params, topBorderY int) {
	pauseCW, pauseCCW := false, false
	distCW, distCCW := math.Inf(1), math.Inf(1)

	turn := 0
	for !c.CW.Halted || !c.CCW.Halted {
		var e, other *Edge
		var dist *float64
		if turn%2 == 0 {
			e, other, dist = c.CW, c.CCW, &distCW
		} else {
			e, other, dist = c.CCW, c.CW, &distCCW
		}
		turn++

		if e.Halted {
			continue
		}
		if (e == c.CW && pauseCW) || (e == c.CCW && pauseCCW) {
			// Let the other edge catch up once before resuming.
			if e == c.CW {
				pauseCW = false
			} else {
				pauseCCW = false
			}
			continue
		}

		leftBorder := e.Last(arena).Y > topBorderY
		ok, reason := e.step(arena, bin, roi, other, params, leftBorder)
		if !ok {
			if reason == haltIntersection {
				tryCross(arena, bin, roi, e, other, params)
			}
			continue
		}

		newDist, increased := distanceToOtherIncreased(arena, e, other, *dist)
		*dist = newDist
		if increased {
			if e == c.CW {
				pauseCW = true
			} else {
				pauseCCW = true
			}
		}

		if c.CW.Halted && c.CCW.Halted {
			break
		}
	}
}

// Clear erases the ink c traced: the union of Edge CW (forward) and Edge
// CCW (reverse) forms a closed polygon, whose interior is erased from bin
// within roi (spec.md §4.6.2: "polygon fill on a mask, bitwise-not,
// bitwise-and with ROI"), mirroring the teacher's BitwiseNot/BitwiseAnd mask
// combination idiom (internal/trace/detector.go, internal/ocr/silkscreen.go).
func (c *Curve) Clear(arena *Arena, bin gocv.Mat, roi image.Rectangle) {
	poly := make([]image.Point, 0, len(c.CW.Trail)+len(c.CCW.Trail))
	for _, id := range c.CW.Trail {
		p := arena.At(id)
		poly = append(poly, image.Point{X: p.X, Y: p.Y})
	}
	for i := len(c.CCW.Trail) - 1; i >= 0; i-- {
		p := arena.At(c.CCW.Trail[i])
		poly = append(poly, image.Point{X: p.X, Y: p.Y})
	}
	if len(poly) < 3 {
		return
	}

	mask := gocv.NewMatWithSize(bin.Rows(), bin.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	pts := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pts.Close()
	gocv.FillPoly(&mask, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(mask, &inverted)

	region := bin.Region(roi)
	defer region.Close()
	invRegion := inverted.Region(roi)
	defer invRegion.Close()
	gocv.BitwiseAnd(region, invRegion, &region)
}
