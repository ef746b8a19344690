package overlap

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/geometry"
	"github.com/finos/micrscan/internal/line"
)

// DefaultPadding is spec.md §4.6's overlap_padding default.
const DefaultPadding = 5

// Correct implements spec.md §4.6 end to end: builds a padded ROI around l,
// clears stray ink that enters from the top border by following its curve
// down through the ROI, then clears padding strips, thin verticals, and
// runs HV thinning. bin is the full-frame binarized raster, modified in
// place; it is owned by the caller's raster.Scope, not by this function.
func Correct(bin gocv.Mat, l *line.Line, pad int, params Params) {
	roiRect := l.Rect.Pad(pad, bin.Cols(), bin.Rows())
	roi := image.Rect(roiRect.X, roiRect.Y, roiRect.MaxX(), roiRect.MaxY())

	for _, run := range topBorderRuns(bin, roi) {
		arena := &Arena{}
		cwSeed := geometry.Point{X: run.start, Y: roi.Min.Y}
		ccwSeed := geometry.Point{X: run.end, Y: roi.Min.Y}
		curve := NewCurve(arena, cwSeed, ccwSeed)
		Follow(arena, bin, roi, curve, params, roi.Min.Y)
		curve.Clear(arena, bin, roi)
	}

	ClearPadding(bin, roi, pad)
	ClearThinVerticals(bin, roi, l.Thresh.VerticalThicknessThreshold)
	HVThin(bin, roi, l.Thresh.MinHorizontalRun, l.Thresh.MinVerticalRun)
}

type xRun struct{ start, end int }

// topBorderRuns finds every maximal X-run of set pixels on roi's top row.
func topBorderRuns(bin gocv.Mat, roi image.Rectangle) []xRun {
	var runs []xRun
	y := roi.Min.Y
	x := roi.Min.X
	for x < roi.Max.X {
		if bin.GetUCharAt(y, x) == 0 {
			x++
			continue
		}
		start := x
		for x < roi.Max.X && bin.GetUCharAt(y, x) != 0 {
			x++
		}
		runs = append(runs, xRun{start: start, end: x - 1})
	}
	return runs
}
