package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectRoundTrip(t *testing.T) {
	r := NewRect(26, 33, 15, 8)
	maxX, maxY := r.Closed()
	assert.Equal(t, 40, maxX)
	assert.Equal(t, 40, r.X+r.Width-1)
	assert.Equal(t, 40, maxX)
	_ = maxY
	rebuilt := RectFromClosed(r.X, r.Y, maxX, maxY)
	assert.Equal(t, r, rebuilt)
}

func TestRectContainsReflexive(t *testing.T) {
	r := NewRect(5, 5, 10, 10)
	assert.True(t, r.Contains(r))
}

func TestRectIntersectsSymmetric(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, 5, 10, 10)
	c := NewRect(100, 100, 5, 5)
	assert.Equal(t, a.Intersects(b), b.Intersects(a))
	assert.Equal(t, a.Intersects(c), c.Intersects(a))
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestFractionIntersects(t *testing.T) {
	a := MinMax{Min: 0, Max: 100}
	b := MinMax{Min: 50, Max: 150}
	assert.InDelta(t, 0.5, FractionIntersects(a, b), 1e-9)
}

func TestXDistance(t *testing.T) {
	a := NewRect(26, 33, 15, 8)
	b := NewRect(105, 28, 9, 10)
	assert.Equal(t, 64, XDistance(a, b))
}

func TestComputeDegreeCardinalAndDiagonal(t *testing.T) {
	cases := []float64{0, 45, 90, 135, 180, 225, 270, 315}
	for _, theta := range cases {
		rad := theta * math.Pi / 180
		dx := math.Cos(rad)
		dy := -math.Sin(rad)
		pts := []Point{
			{X: 0, Y: 0},
			{X: int(math.Round(dx * 50)), Y: int(math.Round(dy * 50))},
			{X: int(math.Round(dx * 100)), Y: int(math.Round(dy * 100))},
		}
		got := ComputeDegree(pts)
		diff := DegreeDelta(got, theta)
		assert.LessOrEqualf(t, diff, 1.5, "theta=%v got=%v", theta, got)
	}
}

func TestComputeDegreeShallowSlopes(t *testing.T) {
	pts := []Point{{0, 0}, {50, -1}, {100, -2}}
	assert.InDelta(t, 1, ComputeDegree(pts), 1)

	pts2 := []Point{{0, 0}, {1, -50}, {2, -100}}
	assert.InDelta(t, 89, ComputeDegree(pts2), 1)
}

func TestDegreeDeltaSymmetricAndBounded(t *testing.T) {
	a, b := 10.0, 350.0
	d1 := DegreeDelta(a, b)
	d2 := DegreeDelta(b, a)
	assert.Equal(t, d1, d2)
	assert.True(t, d1 >= 0 && d1 <= 180)
	assert.InDelta(t, 20, d1, 1e-9)
}
