package translate

import (
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/character"
	"github.com/finos/micrscan/internal/line"
	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/parser"
)

// MicrChars is the whitelist for E-13B MICR recognition: digits plus the
// four control symbols, nothing else (spec.md §4.8 glyph set).
const MicrChars = "0123456789TUAD"

// ThirdPartyOCR recognizes characters with Tesseract, grounded on
// internal/ocr/tesseract.go's Engine: same client lifecycle
// (NewClient/SetLanguage/SetVariable/Close), same dictionary-disabling
// variables (MICR characters aren't English words either), same
// region-crop-then-encode-then-recognize shape, and the same
// preprocessForOCR upscale/CLAHE/Otsu/polarity-check pipeline, narrowed
// here to MicrChars instead of ElectronicsChars.
type ThirdPartyOCR struct {
	client *gosseract.Client
}

// NewThirdPartyOCR constructs an unstarted ThirdPartyOCR translator.
func NewThirdPartyOCR() *ThirdPartyOCR {
	return &ThirdPartyOCR{}
}

func (t *ThirdPartyOCR) Name() string { return "ocr" }

func (t *ThirdPartyOCR) Start() error {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return micrerr.Configuration("tesseract: set language: %v", err)
	}
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")
	if err := client.SetWhitelist(MicrChars); err != nil {
		client.Close()
		return micrerr.Configuration("tesseract: set whitelist: %v", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return micrerr.Configuration("tesseract: set page segmentation mode: %v", err)
	}
	t.client = client
	return nil
}

func (t *ThirdPartyOCR) Stop() error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func (t *ThirdPartyOCR) TranslateLine(bin gocv.Mat, l *line.Line, chars []*character.Character) (LineResult, error) {
	var result LineResult
	var raw strings.Builder
	for _, c := range chars {
		cr, err := t.TranslateChar(bin, c)
		if err != nil {
			continue
		}
		result.Chars = append(result.Chars, cr)
		raw.WriteString(cr.Value)
	}

	parsed := parser.Parse(raw.String())
	result.RoutingNumber = parsed.RoutingNumber
	result.AccountNumber = parsed.AccountNumber
	result.CheckNumber = parsed.CheckNumber
	result.MicrLine = parsed.MicrLine
	return result, nil
}

func (t *ThirdPartyOCR) TranslateChar(bin gocv.Mat, c *character.Character) (CharResult, error) {
	if t.client == nil {
		return CharResult{}, micrerr.Configuration("tesseract: translator not started")
	}
	if c.Rect.Width <= 0 || c.Rect.Height <= 0 {
		return CharResult{}, micrerr.Detection("character has degenerate rectangle")
	}

	region := bin.Region(image.Rect(c.Rect.X, c.Rect.Y, c.Rect.MaxX(), c.Rect.MaxY()))
	defer region.Close()

	processed := preprocessForOCR(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return CharResult{}, micrerr.Wrap(micrerr.KindDetection, err, "encode character image")
	}
	defer buf.Close()

	if err := t.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return CharResult{}, micrerr.Wrap(micrerr.KindDetection, err, "set tesseract image")
	}

	text, err := t.client.Text()
	if err != nil {
		return CharResult{}, micrerr.Wrap(micrerr.KindDetection, err, "tesseract recognition")
	}
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return CharResult{}, micrerr.Detection("tesseract returned no text")
	}
	// A single-char PSM can still emit more than one rune on noisy input;
	// keep only the first recognized symbol.
	return CharResult{Value: text[:1], Score: 0}, nil
}

// FullPageCheckNumber runs spec.md §1's "cheque-number fallback via
// full-page OCR": a second, coarser recognition pass over the Line's whole
// bounding rectangle rather than per-character crops, used when the
// per-character reading produced no check number. Grounded on
// internal/ocr/tesseract.go's PSM_SINGLE_BLOCK pass (treats the crop as one
// uniform block of text rather than isolating a single glyph), run on a
// throwaway client so it doesn't disturb the per-character client's
// PSM_SINGLE_CHAR mode.
func (t *ThirdPartyOCR) FullPageCheckNumber(bin gocv.Mat, l *line.Line) (string, error) {
	if l == nil || l.Rect.Width <= 0 || l.Rect.Height <= 0 {
		return "", micrerr.Detection("line has no bounding rectangle")
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage("eng"); err != nil {
		return "", micrerr.Wrap(micrerr.KindDetection, err, "full-page OCR: set language")
	}
	if err := client.SetWhitelist(MicrChars); err != nil {
		return "", micrerr.Wrap(micrerr.KindDetection, err, "full-page OCR: set whitelist")
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", micrerr.Wrap(micrerr.KindDetection, err, "full-page OCR: set page segmentation mode")
	}

	region := bin.Region(image.Rect(l.Rect.X, l.Rect.Y, l.Rect.MaxX(), l.Rect.MaxY()))
	defer region.Close()
	processed := preprocessForOCR(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", micrerr.Wrap(micrerr.KindDetection, err, "full-page OCR: encode line image")
	}
	defer buf.Close()

	if err := client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", micrerr.Wrap(micrerr.KindDetection, err, "full-page OCR: set image")
	}
	text, err := client.Text()
	if err != nil {
		return "", micrerr.Wrap(micrerr.KindDetection, err, "full-page OCR: recognition")
	}

	parsed := parser.Parse(strings.ToUpper(strings.TrimSpace(text)))
	if parsed.CheckNumber == "" {
		return "", micrerr.Detection("full-page OCR produced no check number")
	}
	return parsed.CheckNumber, nil
}

// preprocessForOCR upscales small character crops, evens illumination with
// CLAHE, binarizes with Otsu, and flips polarity to dark-on-light when the
// region is mostly ink -- the same sequence as
// internal/ocr/tesseract.go's preprocessForOCR, minus its BGR conversions
// since bin is already single-channel.
func preprocessForOCR(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()
	var scaled gocv.Mat
	minDim := h
	if w < minDim {
		minDim = w
	}
	if minDim > 0 && minDim < 150 {
		scale := 150.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = region.Clone()
	}

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()
	enhanced := gocv.NewMat()
	clahe.Apply(scaled, &enhanced)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdType(int(gocv.ThresholdBinary)|int(gocv.ThresholdOtsu)))
	enhanced.Close()

	whiteCount := gocv.CountNonZero(binary)
	totalPixels := binary.Rows() * binary.Cols()
	if totalPixels > 0 && float64(whiteCount)/float64(totalPixels) > 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()
	return result
}

var _ Translator = (*ThirdPartyOCR)(nil)
var _ FullPageFallback = (*ThirdPartyOCR)(nil)
