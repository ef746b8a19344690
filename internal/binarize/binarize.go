// Package binarize implements spec.md §4.2: a 3x3 Gaussian blur followed by
// an inverse, Gaussian-weighted adaptive threshold, producing a raster whose
// foreground (ink) pixels are bright. Grounded on internal/via/detector.go's
// createBrightMask blur->threshold pipeline shape, adapted from a fixed
// threshold to an adaptive one.
package binarize

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/geometry"
	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/raster"
)

// Params configures the adaptive threshold.
type Params struct {
	BlockSize int     // must be odd, > 1 (default 19)
	C         float32 // threshold constant (default 1)
}

// DefaultParams returns spec.md §4.2's fixed values.
func DefaultParams() Params {
	return Params{BlockSize: 19, C: 1}
}

// Binarize blurs src (a single-channel grey raster) and adaptive-thresholds
// it, returning a new Raster with PolarityForegroundBright.
func Binarize(scope *raster.Scope, src raster.Raster, params Params) (*raster.Raster, error) {
	if params.BlockSize%2 == 0 || params.BlockSize <= 1 {
		return nil, micrerr.Configuration("invalid adaptive-threshold block size %d", params.BlockSize)
	}

	blurred := scope.Track(gocv.NewMat())
	gocv.GaussianBlur(src.Mat, &blurred, image.Point{X: 3, Y: 3}, 0, 0, gocv.BorderDefault)

	bin := gocv.NewMat()
	gocv.AdaptiveThreshold(blurred, &bin, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		params.BlockSize, params.C)

	return scope.NewRaster(bin, raster.PolarityForegroundBright), nil
}

// IsSet reports whether a binarized pixel is foreground (bright).
func IsSet(mat gocv.Mat, p geometry.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= mat.Cols() || p.Y >= mat.Rows() {
		return false
	}
	return mat.GetUCharAt(p.Y, p.X) != 0
}
