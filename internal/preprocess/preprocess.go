// Package preprocess implements spec.md §4.1: grey-conversion, deskew,
// polarity analysis, morphological clean, and bottom-band crop.
package preprocess

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/raster"
)

// CropFractions are the half-open begin/end fractions (each in [0,1]) on
// each axis that select the kept band of the image (spec.md §4.1's "bottom-
// band crop keeping the lower 40% by default").
type CropFractions struct {
	BeginWidth, EndWidth   float64
	BeginHeight, EndHeight float64
}

// DefaultCropFractions keeps the full width and the lower 40% of height.
func DefaultCropFractions() CropFractions {
	return CropFractions{BeginWidth: 0, EndWidth: 1, BeginHeight: 0.6, EndHeight: 1}
}

// Validate checks every fraction lies in [0,1] and begin < end per axis,
// returning an Input error otherwise (spec.md §7).
func (c CropFractions) Validate() error {
	for _, f := range []float64{c.BeginWidth, c.EndWidth, c.BeginHeight, c.EndHeight} {
		if f < 0 || f > 1 {
			return micrerr.Input("crop fraction %v outside [0,1]", f)
		}
	}
	if c.BeginWidth >= c.EndWidth || c.BeginHeight >= c.EndHeight {
		return micrerr.Input("crop begin fraction must be less than end fraction")
	}
	return nil
}

// morphKernelSize is the fixed 2x2 rectangular kernel from spec.md §4.1.
const morphKernelSize = 2

// Result is the preprocessor's output: the cleaned, cropped raster plus the
// polarity analysis that drove the morphology order.
type Result struct {
	Raster          *raster.Raster
	BackgroundLight bool
	SkewAngle       float64
	SkewApplied     bool
}

// Run executes the full preprocessor pipeline in spec.md §4.1's order.
// input is a BGR or single-channel Mat; ownership of input is not taken —
// callers keep closing it themselves.
func Run(scope *raster.Scope, input gocv.Mat, crop CropFractions) (*Result, error) {
	if input.Empty() {
		return nil, micrerr.Input("empty input image")
	}
	if err := crop.Validate(); err != nil {
		return nil, err
	}

	grey := scope.Track(gocv.NewMat())
	if input.Channels() == 1 {
		input.CopyTo(&grey)
	} else {
		gocv.CvtColor(input, &grey, gocv.ColorBGRToGray)
	}

	deskewedMat, angle, skewFound := Deskew(scope, grey, grey)
	deskewed := scope.Track(deskewedMat)

	bgLight := BackgroundIsLight(deskewed)

	cleaned := scope.Track(morphClean(deskewed, bgLight))

	cropped, err := cropBottomBand(cleaned, crop)
	if err != nil {
		return nil, err
	}

	polarity := raster.PolarityForegroundDark
	if !bgLight {
		polarity = raster.PolarityForegroundBright
	}

	return &Result{
		Raster:          scope.NewRaster(cropped, polarity),
		BackgroundLight: bgLight,
		SkewAngle:       angle,
		SkewApplied:     skewFound,
	}, nil
}

// morphClean applies erode->dilate when the background is light (ink is the
// minority, thin structures), dilate->erode when the background is dark, as
// specified in spec.md §4.1, with a 2x2 rectangular kernel.
func morphClean(grey gocv.Mat, backgroundLight bool) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: morphKernelSize, Y: morphKernelSize})
	defer kernel.Close()

	out := gocv.NewMat()
	tmp := gocv.NewMat()
	defer tmp.Close()

	if backgroundLight {
		gocv.Erode(grey, &tmp, kernel)
		gocv.Dilate(tmp, &out, kernel)
	} else {
		gocv.Dilate(grey, &tmp, kernel)
		gocv.Erode(tmp, &out, kernel)
	}
	return out
}

// cropBottomBand keeps the half-open fractional band of mat selected by crop.
func cropBottomBand(mat gocv.Mat, crop CropFractions) (gocv.Mat, error) {
	w, h := mat.Cols(), mat.Rows()
	x0 := int(math.Round(crop.BeginWidth * float64(w)))
	x1 := int(math.Round(crop.EndWidth * float64(w)))
	y0 := int(math.Round(crop.BeginHeight * float64(h)))
	y1 := int(math.Round(crop.EndHeight * float64(h)))

	if x1 <= x0 || y1 <= y0 {
		return gocv.Mat{}, micrerr.Input("crop rectangle outside raster bounds")
	}
	if x0 < 0 || y0 < 0 || x1 > w || y1 > h {
		return gocv.Mat{}, micrerr.Input("crop rectangle outside raster bounds")
	}

	region := mat.Region(image.Rect(x0, y0, x1, y1))
	defer region.Close()
	return region.Clone(), nil
}
