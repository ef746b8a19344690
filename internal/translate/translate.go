// Package translate implements spec.md §9's Translator sum-type: a common
// operation set {translate(line), translateChar(char), start, stop} over
// two variants, TemplateMatch and ThirdPartyOCR. Grounded on
// internal/ocr/tesseract.go's Engine (a client handle with start/stop
// lifecycle methods and a region-recognition entry point) generalized from
// one concrete OCR backend into an interface two backends implement.
package translate

import (
	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/character"
	"github.com/finos/micrscan/internal/line"
)

// CharResult is one character's translation: the recognized value plus a
// confidence score in [0,100].
type CharResult struct {
	Value string
	Score float64
}

// LineResult is a translator's reading of an entire MICR line.
type LineResult struct {
	RoutingNumber string
	AccountNumber string
	CheckNumber   string
	MicrLine      string
	Chars         []CharResult
}

// Translator is the common interface both variants implement (spec.md §9's
// sum-type {TemplateMatch, ThirdPartyOCR} with operation set
// {translate(line), translate_char(char), start/stop}).
type Translator interface {
	Name() string
	Start() error
	Stop() error
	TranslateLine(bin gocv.Mat, l *line.Line, chars []*character.Character) (LineResult, error)
	TranslateChar(bin gocv.Mat, c *character.Character) (CharResult, error)
}

// FullPageFallback is implemented by translators that also support spec.md
// §1's "cheque-number fallback via full-page OCR": a coarser whole-line
// recognition pass used when a Translator's segmented reading produced no
// check number. Only ThirdPartyOCR implements this; TemplateMatch has no
// equivalent full-page mode.
type FullPageFallback interface {
	FullPageCheckNumber(bin gocv.Mat, l *line.Line) (string, error)
}
