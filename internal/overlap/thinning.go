package overlap

import (
	"image"

	"gocv.io/x/gocv"
)

// ClearPadding zeroes the pad-wide strips on all four sides of roi within
// bin (spec.md §4.6 step 2).
func ClearPadding(bin gocv.Mat, roi image.Rectangle, pad int) {
	zeroRect(bin, image.Rect(roi.Min.X, roi.Min.Y, roi.Max.X, roi.Min.Y+pad))
	zeroRect(bin, image.Rect(roi.Min.X, roi.Max.Y-pad, roi.Max.X, roi.Max.Y))
	zeroRect(bin, image.Rect(roi.Min.X, roi.Min.Y, roi.Min.X+pad, roi.Max.Y))
	zeroRect(bin, image.Rect(roi.Max.X-pad, roi.Min.Y, roi.Max.X, roi.Max.Y))
}

func zeroRect(bin gocv.Mat, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, bin.Cols(), bin.Rows()))
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			bin.SetUCharAt(y, x, 0)
		}
	}
}

// ClearThinVerticals erases columns whose vertical run of set pixels is <=
// threshold (spec.md §4.6 step 3).
func ClearThinVerticals(bin gocv.Mat, roi image.Rectangle, threshold int) {
	for x := roi.Min.X; x < roi.Max.X; x++ {
		y := roi.Min.Y
		for y < roi.Max.Y {
			if bin.GetUCharAt(y, x) == 0 {
				y++
				continue
			}
			start := y
			for y < roi.Max.Y && bin.GetUCharAt(y, x) != 0 {
				y++
			}
			if y-start <= threshold {
				for yy := start; yy < y; yy++ {
					bin.SetUCharAt(yy, x, 0)
				}
			}
		}
	}
}

// HVThin implements spec.md §4.6.3: repeatedly erase any set pixel whose
// maximum horizontal run AND maximum vertical run through it are both below
// their thresholds, iterating until no change or 100 iterations. Grounded
// on internal/trace/vectorize.go's skeletonize iterate-to-convergence shape
// (erode/dilate/subtract repeated until the working Mat stops changing),
// adapted here to a direct run-length test instead of morphological erosion
// since the spec's stopping rule is run-length-based, not emptiness-based.
func HVThin(bin gocv.Mat, roi image.Rectangle, minH, minV int) {
	for iter := 0; iter < 100; iter++ {
		toClear := scanThin(bin, roi, minH, minV)
		if len(toClear) == 0 {
			return
		}
		for _, p := range toClear {
			bin.SetUCharAt(p.Y, p.X, 0)
		}
	}
}

type pixel struct{ X, Y int }

func scanThin(bin gocv.Mat, roi image.Rectangle, minH, minV int) []pixel {
	var out []pixel
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		for x := roi.Min.X; x < roi.Max.X; x++ {
			if bin.GetUCharAt(y, x) == 0 {
				continue
			}
			h := horizontalRun(bin, roi, x, y)
			v := verticalRun(bin, roi, x, y)
			if h < minH && v < minV {
				out = append(out, pixel{X: x, Y: y})
			}
		}
	}
	return out
}

func horizontalRun(bin gocv.Mat, roi image.Rectangle, x, y int) int {
	left := x
	for left-1 >= roi.Min.X && bin.GetUCharAt(y, left-1) != 0 {
		left--
	}
	right := x
	for right+1 < roi.Max.X && bin.GetUCharAt(y, right+1) != 0 {
		right++
	}
	return right - left + 1
}

func verticalRun(bin gocv.Mat, roi image.Rectangle, x, y int) int {
	top := y
	for top-1 >= roi.Min.Y && bin.GetUCharAt(top-1, x) != 0 {
		top--
	}
	bottom := y
	for bottom+1 < roi.Max.Y && bin.GetUCharAt(bottom+1, x) != 0 {
		bottom++
	}
	return bottom - top + 1
}
