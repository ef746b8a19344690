package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finos/micrscan/internal/micrerr"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownSlowOrHungLogLevel(t *testing.T) {
	cfg := Default()
	cfg.SlowOrHungRequestLogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateTranslatorKnownAndUnknown(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ValidateTranslator("template"))
	assert.Error(t, cfg.ValidateTranslator("not-a-translator"))
}

func TestLoadWithEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFileIsConfigurationError(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
	assert.True(t, micrerr.Is(err, micrerr.KindConfiguration))
}

func TestApplyEnvOverlaysKnownKeys(t *testing.T) {
	for k, v := range map[string]string{
		"OCR_OVERLAP_CORRECTION": "false",
		"OCR_OVERLAP_PADDING":    "9",
		"OCR_MAX_CHAR_HEIGHT":    "40",
		"OCR_LOG_LEVEL":          "debug",
		"OCR_ANCHOR_STOP_SCORE":  "75.5",
	} {
		t.Setenv(k, v)
	}

	cfg := ApplyEnv(Default())
	assert.False(t, cfg.OverlapCorrection)
	assert.Equal(t, 9, cfg.OverlapPadding)
	assert.Equal(t, 40, cfg.MaxCharHeight)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 75.5, cfg.AnchorStopScore, 0.0001)
}

func TestApplyEnvIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("OCR_OVERLAP_PADDING", "not-a-number")
	cfg := ApplyEnv(Default())
	assert.Equal(t, Default().OverlapPadding, cfg.OverlapPadding)
}

func TestApplyEnvLeavesUnsetKeysAtDefault(t *testing.T) {
	os.Unsetenv("OCR_MAX_CHAR_WIDTH")
	cfg := ApplyEnv(Default())
	assert.Equal(t, Default().MaxCharWidth, cfg.MaxCharWidth)
}

func TestEnvKeyRendersScreamingSnakeCase(t *testing.T) {
	assert.Equal(t, "OCR_MAX_CHAR_HEIGHT", EnvKey("maxCharHeight"))
	assert.Equal(t, "OCR_LOG_LEVEL", EnvKey("logLevel"))
}
