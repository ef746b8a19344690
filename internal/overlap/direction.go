package overlap

import "github.com/finos/micrscan/internal/geometry"

// dirOffsets are the eight neighbour offsets at 0, 45, ..., 315 degrees, in
// that rotational order (spec.md §4.6.1). Index 0 is "east" (+X), proceeding
// counter-clockwise in image coordinates (Y grows downward, so "+45" visits
// north-east before north).
var dirOffsets = [8]geometry.Point{
	{X: 1, Y: 0},   // 0
	{X: 1, Y: -1},  // 45
	{X: 0, Y: -1},  // 90
	{X: -1, Y: -1}, // 135
	{X: -1, Y: 0},  // 180
	{X: -1, Y: 1},  // 225
	{X: 0, Y: 1},   // 270
	{X: 1, Y: 1},   // 315
}

// opposite returns the index 180 degrees from dir.
func opposite(dir int) int {
	return (dir + 4) % 8
}

// rotate advances dir by step (1 for clockwise, -1 for counter-clockwise in
// this offset table's sense), wrapping into [0,8).
func rotate(dir, step int) int {
	d := (dir + step) % 8
	if d < 0 {
		d += 8
	}
	return d
}

// directionIndexTo finds the offset index whose delta matches to-from,
// or -1 if they are not 8-neighbours.
func directionIndexTo(from, to geometry.Point) int {
	dx, dy := to.X-from.X, to.Y-from.Y
	for i, o := range dirOffsets {
		if o.X == dx && o.Y == dy {
			return i
		}
	}
	return -1
}

// nearestDirection returns the offset index whose pixel is closest in
// degrees to targetDeg (spec.md §4.6.2's "8-neighbour direction-walker that
// picks the neighbour closest to the target degree").
func nearestDirection(targetDeg float64) int {
	best := 0
	bestDelta := 361.0
	for i := range dirOffsets {
		deg := degreeOfOffset(i)
		delta := geometry.DegreeDelta(deg, targetDeg)
		if delta < bestDelta {
			bestDelta = delta
			best = i
		}
	}
	return best
}

// degreeOfOffset returns the canonical angle (0 = right, 90 = up) of offset
// index i.
func degreeOfOffset(i int) float64 {
	return float64(i) * 45
}
