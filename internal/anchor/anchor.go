// Package anchor implements spec.md §4.4: scoring every contour against the
// reference "0" glyph by normalized cross-correlation and picking the best
// match, scanning bottom-up so the MICR line (always the lowest feature on
// the cheque) is found first. Grounded on internal/component/detect.go and
// internal/via/match.go's candidate-scan-and-score loops: resize each
// candidate to a fixed tile, score against a template, track the best,
// early-exit once a configured score is reached.
package anchor

import (
	"image"
	"sort"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/raster"
	"github.com/finos/micrscan/internal/reference"
)

// TileSize is the fixed grey tile size every candidate contour is resized to
// before matching (spec.md §4.4).
const TileSize = 36

// Result is the winning contour plus its match score, scaled to 0-100.
type Result struct {
	Contour *contour.Contour
	Score   float64
}

// Find scans contours in descending-Y order (bottom-up) and returns the
// contour whose resized tile best matches the reference "0" glyph via
// TM_CCORR_NORMED, stopping early once a candidate scores >= stop.
//
// A missing "0" reference template is a fatal Configuration error. If every
// candidate scores zero or below, ok is false: the caller has a soft
// Detection failure (spec.md: "the Line cannot be built"), not an error.
func Find(scope *raster.Scope, bin gocv.Mat, contours []*contour.Contour, refs *reference.Set, stop float64) (Result, bool, error) {
	zero, err := refs.Zero()
	if err != nil {
		return Result{}, false, err
	}

	template := scope.Track(refs.Template(zero, TileSize))

	ordered := make([]*contour.Contour, len(contours))
	copy(ordered, contours)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rect.MaxY() > ordered[j].Rect.MaxY()
	})

	var best Result
	var found bool

	for _, c := range ordered {
		score, err := scoreContour(scope, bin, c, template)
		if err != nil {
			continue
		}
		if !found || score > best.Score {
			best = Result{Contour: c, Score: score}
			found = true
		}
		if found && best.Score >= stop {
			break
		}
	}

	if !found || best.Score <= 0 {
		return Result{}, false, nil
	}
	return best, true, nil
}

// scoreContour crops c's bounding rectangle from bin, resizes it to the
// fixed tile size, and matches it against template with normalized
// cross-correlation, returning a score in [0, 100].
func scoreContour(scope *raster.Scope, bin gocv.Mat, c *contour.Contour, template gocv.Mat) (float64, error) {
	rect := c.Rect
	if rect.Width <= 0 || rect.Height <= 0 {
		return 0, micrerr.Detection("contour %d has degenerate rectangle", c.Index)
	}
	region := bin.Region(image.Rect(rect.X, rect.Y, rect.MaxX(), rect.MaxY()))
	defer region.Close()

	tile := scope.Track(gocv.NewMat())
	gocv.Resize(region, &tile, image.Point{X: TileSize, Y: TileSize}, 0, 0, gocv.InterpolationLinear)

	mask := scope.Track(gocv.NewMat())
	result := scope.Track(gocv.NewMat())
	gocv.MatchTemplate(tile, template, &result, gocv.TmCcorrNormed, mask)

	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal) * 100, nil
}
