package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finos/micrscan/internal/config"
	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/micrlog"
	"github.com/finos/micrscan/internal/translate"
)

func TestRequestCropFractionsDefaultsToConfigBand(t *testing.T) {
	cfg := config.Default()
	cfg.BottomBandBeginHeight = 0.5
	cfg.BottomBandEndHeight = 0.9

	crop := requestCropFractions(Request{}, cfg)
	assert.Equal(t, 0.5, crop.BeginHeight)
	assert.Equal(t, 0.9, crop.EndHeight)
	assert.Equal(t, 0.0, crop.BeginWidth)
	assert.Equal(t, 1.0, crop.EndWidth)
}

func TestRequestCropFractionsOverridesFromRequest(t *testing.T) {
	cfg := config.Default()
	width := 0.1
	height := 0.8

	req := Request{Crop: &CropSpec{
		Begin: &AxisFractions{Width: &width},
		End:   &AxisFractions{Height: &height},
	}}

	crop := requestCropFractions(req, cfg)
	assert.Equal(t, 0.1, crop.BeginWidth)
	assert.Equal(t, 0.8, crop.EndHeight)
	// Unset axes still fall back to the config default.
	assert.Equal(t, cfg.BottomBandBeginHeight, crop.BeginHeight)
	assert.Equal(t, 1.0, crop.EndWidth)
}

func TestWantsDebug(t *testing.T) {
	req := Request{Debug: []string{"deskewed", "binarized"}}
	assert.True(t, wantsDebug(req, "deskewed"))
	assert.True(t, wantsDebug(req, "binarized"))
	assert.False(t, wantsDebug(req, "characters"))
	assert.False(t, wantsDebug(Request{}, "deskewed"))
}

func TestTranslatorNamesDefaultsToKnownTranslators(t *testing.T) {
	cfg := config.Default()
	names := translatorNames(Request{}, cfg)
	assert.Equal(t, cfg.KnownTranslators, names)
}

func TestTranslatorNamesHonorsRequestOverride(t *testing.T) {
	cfg := config.Default()
	req := Request{Translators: []string{"ocr"}}
	assert.Equal(t, []string{"ocr"}, translatorNames(req, cfg))
}

func TestTranslatorNamesCapsAtMaxChoices(t *testing.T) {
	cfg := config.Default()
	cfg.MaxTranslatorChoices = 2
	req := Request{Translators: []string{"a", "b", "c", "d"}}
	assert.Equal(t, []string{"a", "b"}, translatorNames(req, cfg))
}

func TestValidateTranslatorNamesAcceptsKnownNames(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, validateTranslatorNames(Request{Translators: []string{"template", "ocr"}}, cfg))
}

func TestValidateTranslatorNamesRejectsUnknownName(t *testing.T) {
	cfg := config.Default()
	err := validateTranslatorNames(Request{Translators: []string{"not-a-translator"}}, cfg)
	require.Error(t, err)
	assert.True(t, micrerr.Is(err, micrerr.KindConfiguration))
}

func TestValidateTranslatorNamesEmptyIsFine(t *testing.T) {
	assert.NoError(t, validateTranslatorNames(Request{}, config.Default()))
}

func TestTranslatorDetailsNilForEmptyChars(t *testing.T) {
	assert.Nil(t, translatorDetails(translate.LineResult{}))
}

func TestTranslatorDetailsAggregatesCharsAndMeanScore(t *testing.T) {
	lr := translate.LineResult{
		Chars: []translate.CharResult{
			{Value: "1", Score: 80},
			{Value: "2", Score: 90},
		},
	}
	details := translatorDetails(lr)
	require.NotNil(t, details)
	assert.Equal(t, "12", details.Value)
	assert.InDelta(t, 85, details.Score, 0.0001)
	assert.Len(t, details.Chars, 2)
}

func TestLogAccuracyNoopWithoutActual(t *testing.T) {
	log := micrlog.New(micrlog.LevelDebug, 4)
	// Just confirm it doesn't panic when req.Actual is unset.
	logAccuracy(log, Request{}, "template", translate.LineResult{MicrLine: "T123T456U789"})
}

func TestLogAccuracyComparesAgainstActual(t *testing.T) {
	log := micrlog.New(micrlog.LevelDebug, 4)
	req := Request{Actual: "T123T456U789"}
	logAccuracy(log, req, "template", translate.LineResult{MicrLine: "T123T456U789"})
	logAccuracy(log, req, "tesseract", translate.LineResult{MicrLine: "T999T456U789"})
}

func TestSoftErrorResponseDetectionIsEmptyNonError(t *testing.T) {
	resp, err := softErrorResponse(Request{ID: "req-1"}, micrerr.Detection("no anchor found"))
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "req-1", resp.ID)
	assert.False(t, resp.Overlap)
	assert.Empty(t, resp.Translators)
}

func TestSoftErrorResponsePropagatesFatalErrors(t *testing.T) {
	resp, err := softErrorResponse(Request{}, micrerr.Input("bad image"))
	assert.Nil(t, resp)
	assert.True(t, micrerr.Is(err, micrerr.KindInput))
}
