package character

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
	"github.com/finos/micrscan/internal/line"
)

func medium(x, y, w, h int) *contour.Contour {
	r := geometry.NewRect(x, y, w, h)
	return &contour.Contour{Rect: r, FilledArea: float64(r.Area()), Size: contour.SizeMedium}
}

func TestDeriveStats(t *testing.T) {
	cs := []*contour.Contour{
		medium(0, 0, 10, 20),
		medium(20, 0, 12, 20),
		medium(40, 0, 10, 20),
	}
	s := DeriveStats(cs)
	assert.Equal(t, 12, s.MaxWidth)
	assert.Equal(t, 8, s.MinDistBetween) // min(20-10, 40-32)
	assert.Equal(t, 10, s.MaxDistBetween)
}

func TestSegmentEmitsOneCharacterPerMedium(t *testing.T) {
	a := medium(0, 0, 10, 20)
	b := medium(30, 0, 10, 20)
	l := &line.Line{
		Contours: []*contour.Contour{a, b},
		Thresh:   line.Thresholds{MinArea: 1, MinHeight: 1, MaxArea: 1e9, MaxWidth: 15, MaxHeight: 20},
	}
	stats := DeriveStats([]*contour.Contour{a, b})

	chars := Segment(l, stats)

	assert.Len(t, chars, 2)
	assert.Equal(t, 0, chars[0].Rect.X)
	assert.Equal(t, 30, chars[1].Rect.X)
	assert.Equal(t, 0, chars[0].Index)
	assert.Equal(t, 1, chars[1].Index)
}

func TestLineBoundingRectFallsBackToUnion(t *testing.T) {
	a := medium(0, 0, 10, 20)
	b := medium(30, 5, 10, 20)
	rect := LineBoundingRect(nil, []*contour.Contour{a, b}, 1000, 1000)
	union := a.Rect.Union(b.Rect)
	assert.Equal(t, union, rect)
}
