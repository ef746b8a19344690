package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finos/micrscan/internal/rasterio"
)

func TestFormatFromExtKnownExtensions(t *testing.T) {
	cases := map[string]rasterio.Format{
		"cheque.png":  rasterio.FormatPNG,
		"cheque.JPG":  rasterio.FormatJPEG,
		"cheque.jpeg": rasterio.FormatJPEG,
		"cheque.gif":  rasterio.FormatGIF,
		"cheque.bmp":  rasterio.FormatBMP,
		"cheque.tif":  rasterio.FormatTIFF,
		"cheque.TIFF": rasterio.FormatTIFF,
		"a/b/c.png":   rasterio.FormatPNG,
	}
	for path, want := range cases {
		got, err := formatFromExt(path)
		assert.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}

func TestFormatFromExtUnknownExtension(t *testing.T) {
	_, err := formatFromExt("cheque.tiff.zip")
	assert.Error(t, err)
}
