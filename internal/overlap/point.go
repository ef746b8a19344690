// Package overlap implements spec.md §4.6: the overlap corrector that
// erases stray ink crossing into the MICR band from above by following its
// curve down through the region of interest, then cleans what remains with
// padding/vertical-thickness/HV-thinning passes. Grounded on
// internal/trace/walk.go's FloodFillCopper (8-direction neighbour stepping,
// parent-pointer path reconstruction, terminal/boundary stop conditions).
package overlap

import "github.com/finos/micrscan/internal/geometry"

// PointID indexes into an Arena. The spec models Curve/Edge/Point with
// cyclic references (a Point knows its Edge, an Edge its Curve and the
// other Edge); Go has no natural cyclic-pointer idiom for that, so the
// arena holds Points by value and everything else refers to them by ID.
type PointID int

// Arena owns every Point visited while following curves in one ROI. IDs are
// stable for the arena's lifetime; there is no deletion.
type Arena struct {
	points []geometry.Point
}

// Add appends p and returns its ID.
func (a *Arena) Add(p geometry.Point) PointID {
	a.points = append(a.points, p)
	return PointID(len(a.points) - 1)
}

// At returns the point for id.
func (a *Arena) At(id PointID) geometry.Point {
	return a.points[id]
}

// Window returns the trail indices from at-before through at+after
// (inclusive of at itself), clipped to the trail's bounds -- the shape of
// the "one point before, three after" window spec.md §4.6.1 uses for degree
// fitting. Edge.Degree does not call it: it fits the trail's last four
// points directly.
func Window(trail []PointID, at int, before, after int) []int {
	lo := at - before
	if lo < 0 {
		lo = 0
	}
	hi := at + after
	if hi > len(trail)-1 {
		hi = len(trail) - 1
	}
	idx := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		idx = append(idx, i)
	}
	return idx
}
