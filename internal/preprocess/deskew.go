package preprocess

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/raster"
)

// deskewParams are the fixed constants from spec.md §4.1.1.
const (
	deskewBlurKSize = 7
	deskewDilateKW  = 25
	deskewDilateKH  = 1
	deskewMinWidth  = 120
	deskewMinHeight = 10
	deskewMaxHeight = 100
)

// estimateSkewAngle implements spec.md §4.1.1: blur, Otsu invert-binarize,
// dilate to fuse text into horizontal bars, extract external contours
// (discarding border-touching ones), and pick the most "rectangular"
// (rect-area / filled-area closest to 1) candidate larger than 120x10 and
// shorter than 100px. Returns (angle, true) or (0, false) if no candidate is
// found. Grounded on internal/alignment/contact_bounds.go's
// detectBoardBounds: blur -> mask -> morphology -> FindContours ->
// MinAreaRect -> angle-from-rotated-rect.
func estimateSkewAngle(scope *raster.Scope, grey gocv.Mat) (float64, bool) {
	blurred := scope.Track(gocv.NewMat())
	gocv.GaussianBlur(grey, &blurred, image.Point{X: deskewBlurKSize, Y: deskewBlurKSize}, 0, 0, gocv.BorderDefault)

	binary := scope.Track(gocv.NewMat())
	gocv.Threshold(blurred, &binary, 0, 255,
		gocv.ThresholdType(int(gocv.ThresholdBinaryInv)|int(gocv.ThresholdOtsu)))

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: deskewDilateKW, Y: deskewDilateKH})
	defer kernel.Close()
	dilated := scope.Track(gocv.NewMat())
	gocv.Dilate(binary, &dilated, kernel)

	found := gocv.FindContours(dilated, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	w, h := grey.Cols(), grey.Rows()

	var (
		bestRatio   = math.Inf(1)
		bestContour gocv.PointVector
		haveBest    bool
	)
	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		rect := gocv.BoundingRect(pv)
		if rect.Min.X <= 0 || rect.Min.Y <= 0 || rect.Max.X >= w || rect.Max.Y >= h {
			continue
		}
		if rect.Dx() <= deskewMinWidth || rect.Dy() <= deskewMinHeight {
			continue
		}
		if rect.Dy() >= deskewMaxHeight {
			continue
		}
		filled := gocv.ContourArea(pv)
		if filled <= 0 {
			continue
		}
		rectArea := float64(rect.Dx() * rect.Dy())
		ratio := rectArea / filled
		if ratio < bestRatio {
			bestRatio = ratio
			bestContour = pv
			haveBest = true
		}
	}

	if !haveBest {
		return 0, false
	}

	rotRect := gocv.MinAreaRect(bestContour)
	width := float64(rotRect.Width)
	height := float64(rotRect.Height)
	alpha := float64(rotRect.Angle)

	var angle float64
	if width < height {
		angle = -(90 - alpha)
	} else {
		angle = alpha
	}
	return angle, true
}

// Deskew rotates src about its centre by the estimated skew angle using
// cubic resampling and border replication. If no skew candidate is found,
// src is returned unrotated (a clone, so the caller always owns a fresh
// Mat). Grounded on internal/alignment/transform.go's RotateImage/WarpAffine
// (GetRotationMatrix2D + WarpAffineWithParams).
// Deskew does not track its returned Mat with scope itself — the caller
// tracks it exactly once, since the no-rotation path and the rotation path
// would otherwise register two different allocation sites.
func Deskew(scope *raster.Scope, src gocv.Mat, grey gocv.Mat) (gocv.Mat, float64, bool) {
	angle, ok := estimateSkewAngle(scope, grey)
	if !ok || angle == 0 {
		return src.Clone(), angle, ok
	}

	center := image.Point{X: src.Cols() / 2, Y: src.Rows() / 2}
	rot := scope.Track(gocv.GetRotationMatrix2D(center, angle, 1.0))

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, rot, image.Point{X: src.Cols(), Y: src.Rows()},
		gocv.InterpolationCubic, gocv.BorderReplicate, color.RGBA{})
	return dst, angle, ok
}
