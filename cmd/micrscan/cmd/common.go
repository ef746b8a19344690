package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/config"
	"github.com/finos/micrscan/internal/rasterio"
	"github.com/finos/micrscan/internal/reference"
	"github.com/finos/micrscan/internal/session"
	"github.com/finos/micrscan/internal/translate"
)

// loadConfig reads configFile (if set) and overlays OCR_* environment
// variables, mirroring internal/image/layer.go's file-then-decode loading
// shape used throughout the teacher's asset-loading code.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	return config.ApplyEnv(cfg), nil
}

// loadImageFile reads path from disk and decodes it with rasterio,
// guessing the format from the file extension.
func loadImageFile(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("reading %s: %w", path, err)
	}
	format, err := formatFromExt(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	return rasterio.Decode(format, data)
}

func formatFromExt(path string) (rasterio.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return rasterio.FormatPNG, nil
	case ".jpg", ".jpeg":
		return rasterio.FormatJPEG, nil
	case ".gif":
		return rasterio.FormatGIF, nil
	case ".bmp":
		return rasterio.FormatBMP, nil
	case ".tif", ".tiff":
		return rasterio.FormatTIFF, nil
	default:
		return "", fmt.Errorf("cannot guess image format from extension of %q", path)
	}
}

// buildSession loads config, the reference glyph set, and both translator
// backends, wiring them into a session.Session ready to service requests.
func buildSession() (*session.Session, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	if referenceFile == "" {
		return nil, nil, fmt.Errorf("--reference-image is required")
	}
	asset, err := loadImageFile(referenceFile)
	if err != nil {
		return nil, nil, err
	}

	descriptors := strings.Split(descriptorArg, ",")
	refs, err := reference.Load(asset, descriptors)
	if err != nil {
		asset.Close()
		return nil, nil, err
	}

	candidates := []translate.Translator{
		translate.NewTemplateMatch(refs),
		translate.NewThirdPartyOCR(),
	}

	translators := map[string]translate.Translator{}
	for _, t := range candidates {
		if err := t.Start(); err != nil {
			// Classifier failure is soft (spec.md §7): drop this backend,
			// other translators still run.
			fmt.Fprintf(os.Stderr, "translator %q unavailable: %v\n", t.Name(), err)
			continue
		}
		translators[t.Name()] = t
	}

	sess := session.New(cfg, refs, translators)

	cleanup := func() {
		for _, t := range translators {
			_ = t.Stop()
		}
		_ = refs.Close()
	}
	return sess, cleanup, nil
}
