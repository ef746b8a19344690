package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ComputeDegree returns the direction of a short pixel chain in degrees,
// 0..360, where 0 = right and 90 = up (screen Y grows downward, so "up" is
// decreasing Y). The direction is the principal axis of the point window
// found via gonum's symmetric eigen-decomposition of the 2x2 covariance.
//
// Degenerate inputs (fewer than two distinct points) return 0.
func ComputeDegree(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var meanX, meanY float64
	for _, p := range points {
		meanX += float64(p.X)
		meanY += float64(p.Y)
	}
	n := float64(len(points))
	meanX /= n
	meanY /= n

	var sxx, syy, sxy float64
	for _, p := range points {
		dx := float64(p.X) - meanX
		dy := float64(p.Y) - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	cov := mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy})
	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return directionFromEndpoints(points)
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// The principal axis is the eigenvector with the largest eigenvalue.
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	vx := vectors.At(0, best)
	vy := vectors.At(1, best)

	if vx == 0 && vy == 0 {
		return directionFromEndpoints(points)
	}

	// Resolve the sign ambiguity (eigenvectors have no inherent direction)
	// using the chain's overall travel from first to last point.
	first, last := points[0], points[len(points)-1]
	travelX := float64(last.X - first.X)
	travelY := float64(last.Y - first.Y)
	if vx*travelX+vy*travelY < 0 {
		vx, vy = -vx, -vy
	}

	return normalizeDegrees(radToDeg(math.Atan2(-vy, vx)))
}

func directionFromEndpoints(points []Point) float64 {
	first, last := points[0], points[len(points)-1]
	dx := float64(last.X - first.X)
	dy := float64(last.Y - first.Y)
	if dx == 0 && dy == 0 {
		return 0
	}
	return normalizeDegrees(radToDeg(math.Atan2(-dy, dx)))
}

func radToDeg(r float64) float64 {
	return r * 180 / math.Pi
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// DegreeDelta returns the symmetric angular distance between a and b wrapped
// into [0, 180]. DegreeDelta(a,b) == DegreeDelta(b,a) always.
func DegreeDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
