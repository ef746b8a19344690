// Package rasterio bridges the five request image formats (§6: tiff, png,
// jpeg, gif, bmp) to gocv.Mat. PNG/JPEG/GIF decode via the standard library;
// BMP/TIFF decode via golang.org/x/image, the teacher's own (otherwise
// unused beyond font shaping) indirect dependency, given a real job here.
// Grounded on internal/alignment/contact_image.go's Mat<->image.Image pixel
// loops.
package rasterio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/micrerr"
)

// Format is one of the request image formats from spec.md §6.
type Format string

const (
	FormatTIFF Format = "tiff"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
)

// DecodeBase64OrRaw returns buffer as-is if it already looks like raw binary
// (can't be base64, or decoding fails), otherwise the base64-decoded bytes.
// The request's image.buffer is documented as "bytes-or-base64".
func DecodeBase64OrRaw(buffer []byte) []byte {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(buffer)))
	n, err := base64.StdEncoding.Decode(decoded, buffer)
	if err != nil {
		return buffer
	}
	return decoded[:n]
}

// Decode decodes buffer (already raw binary) in the given format into a BGR
// gocv.Mat ready for grey-conversion.
func Decode(format Format, buffer []byte) (gocv.Mat, error) {
	if len(buffer) == 0 {
		return gocv.Mat{}, micrerr.Input("zero-size image buffer")
	}

	var img image.Image
	var err error
	switch format {
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(buffer))
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(buffer))
	case FormatGIF:
		img, err = gif.Decode(bytes.NewReader(buffer))
	case FormatBMP:
		img, err = bmp.Decode(bytes.NewReader(buffer))
	case FormatTIFF:
		img, err = tiff.Decode(bytes.NewReader(buffer))
	default:
		return gocv.Mat{}, micrerr.Input("unreadable format %q", format)
	}
	if err != nil {
		return gocv.Mat{}, micrerr.Wrap(micrerr.KindInput, err, "decoding %s image", format)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return gocv.Mat{}, micrerr.Input("zero-size image")
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			mat.SetUCharAt(y, x*3+0, c.B)
			mat.SetUCharAt(y, x*3+1, c.G)
			mat.SetUCharAt(y, x*3+2, c.R)
		}
	}
	return mat, nil
}

// Encode renders a Mat as a named format for the response images[] array
// (§6), mirroring internal/ocr/tesseract.go's IMEncode usage.
func Encode(format Format, mat gocv.Mat) ([]byte, error) {
	var ext gocv.FileExt
	switch format {
	case FormatPNG:
		ext = gocv.PNGFileExt
	case FormatJPEG:
		ext = gocv.JPEGFileExt
	default:
		return nil, fmt.Errorf("unsupported debug image encoding %q", format)
	}
	buf, err := gocv.IMEncode(ext, mat)
	if err != nil {
		return nil, fmt.Errorf("encoding %s image: %w", format, err)
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
