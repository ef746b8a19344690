package preprocess

import "gocv.io/x/gocv"

// gridSamples is spec.md §4.1.2's 10x10 uniform sample grid.
const gridSamples = 10

// BackgroundIsLight reports whether the mean of a 10x10 uniform grid sample
// of grey exceeds 128 (spec.md §4.1.2).
func BackgroundIsLight(grey gocv.Mat) bool {
	return meanGridIntensity(grey) > 128
}

func meanGridIntensity(grey gocv.Mat) float64 {
	rows, cols := grey.Rows(), grey.Cols()
	if rows == 0 || cols == 0 {
		return 0
	}
	var sum float64
	var n int
	for i := 0; i < gridSamples; i++ {
		for j := 0; j < gridSamples; j++ {
			y := (i * rows) / gridSamples
			x := (j * cols) / gridSamples
			if y >= rows {
				y = rows - 1
			}
			if x >= cols {
				x = cols - 1
			}
			sum += float64(grey.GetUCharAt(y, x))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
