package line

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
)

func rectContour(idx, x, y, w, h int) *contour.Contour {
	r := geometry.NewRect(x, y, w, h)
	return &contour.Contour{
		Index:      idx,
		Rect:       r,
		FilledArea: float64(r.Area()),
		RectArea:   r.Area(),
	}
}

func TestDeriveThresholds(t *testing.T) {
	anchor := rectContour(0, 100, 50, 20, 30)
	th := DeriveThresholds(anchor)

	assert.InDelta(t, 0.47*600, th.MinArea, 1e-9)
	assert.InDelta(t, 1.25*600, th.MaxArea, 1e-9)
	assert.InDelta(t, 0.9*30, th.MinHeight, 1e-9)
	assert.Equal(t, 20, th.MaxWidth)
	assert.Equal(t, 30, th.MaxHeight)
	assert.Equal(t, 8, th.ContainmentPad)        // round(0.25*30) = 8 (round-half-to-even not at play: 7.5 -> 8)
	assert.Equal(t, 6, th.MinHorizontalRun)       // round(0.3*20) = 6
	assert.Equal(t, 9, th.MinVerticalRun)         // round(0.3*30) = 9
	assert.Equal(t, 8, th.VerticalThicknessThreshold)
}

func TestBuildNeighbourSweepAcceptsAlignedContours(t *testing.T) {
	anchor := rectContour(0, 100, 100, 20, 30)
	left := rectContour(1, 60, 102, 18, 28)
	right := rectContour(2, 140, 98, 19, 30)
	distant := rectContour(3, 500, 500, 20, 30) // no Y-intersect, should stay off-line

	l := Build(anchor, []*contour.Contour{anchor, left, right, distant}, 2000, 2000)

	var xs []int
	for _, c := range l.Contours {
		xs = append(xs, c.Rect.X)
	}
	assert.Contains(t, xs, 60)
	assert.Contains(t, xs, 100)
	assert.Contains(t, xs, 140)
	assert.NotContains(t, xs, 500)
}

func TestBuildSortsContoursByX(t *testing.T) {
	anchor := rectContour(0, 100, 100, 20, 30)
	left := rectContour(1, 60, 102, 18, 28)
	right := rectContour(2, 140, 98, 19, 30)

	l := Build(anchor, []*contour.Contour{right, anchor, left}, 2000, 2000)

	for i := 1; i < len(l.Contours); i++ {
		assert.LessOrEqual(t, l.Contours[i-1].Rect.X, l.Contours[i].Rect.X)
	}
}
