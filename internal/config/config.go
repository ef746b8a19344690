// Package config defines the MICR pipeline's configuration record: every
// key in the spec's CONFIG table, its default, and an environment-variable
// overlay. Grounded on the teacher's declarative board.Spec + FromSpec
// translation pattern, loaded here with gopkg.in/yaml.v2 (arl-go-detour's
// own dependency, otherwise unused anywhere in the example pack).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/finos/micrscan/internal/micrerr"
	"gopkg.in/yaml.v2"
)

// Config is the full set of tunables from spec.md §6.
type Config struct {
	OverlapCorrection bool `yaml:"overlap_correction"`
	OverlapPadding    int  `yaml:"overlap_padding"`

	MaxCharHeight int `yaml:"max_char_height"`
	MaxCharWidth  int `yaml:"max_char_width"`
	MaxCharArea   int `yaml:"max_char_area"`

	MinContourArea   int `yaml:"min_contour_area"`
	MinContourHeight int `yaml:"min_contour_height"`
	MinContourWidth  int `yaml:"min_contour_width"`

	MaxSpaceBetweenCharsOfWord int `yaml:"max_space_between_chars_of_word"`
	MaxSpaceBetweenWords       int `yaml:"max_space_between_words"`

	MaxTranslatorChoices int    `yaml:"max_translator_choices"`
	LogLevel             string `yaml:"log_level"`

	SlowRequestMS             int    `yaml:"slow_request_ms"`
	HungRequestMS             int    `yaml:"hung_request_ms"`
	SlowOrHungRequestLogLevel string `yaml:"slow_or_hung_request_log_level"`

	// AnchorStopScore is the anchor finder's early-exit score (§4.4, default 90).
	AnchorStopScore float64 `yaml:"anchor_stop_score"`

	// BottomBandBegin/End are the default crop fractions (§4.1, lower 40%).
	BottomBandBeginHeight float64 `yaml:"bottom_band_begin_height"`
	BottomBandEndHeight   float64 `yaml:"bottom_band_end_height"`

	KnownTranslators []string `yaml:"-"`
}

// Default returns the configuration with every spec.md §6 default applied.
func Default() Config {
	return Config{
		OverlapCorrection: true,
		OverlapPadding:    5,

		MaxCharHeight: 30,
		MaxCharWidth:  28,
		MaxCharArea:   30 * 28,

		MinContourArea:   20,
		MinContourHeight: 7,
		MinContourWidth:  3,

		MaxSpaceBetweenCharsOfWord: 15,
		MaxSpaceBetweenWords:       200,

		MaxTranslatorChoices: 3,
		LogLevel:             "info",

		SlowRequestMS:             0,
		HungRequestMS:             0,
		SlowOrHungRequestLogLevel: "debug",

		AnchorStopScore: 90,

		BottomBandBeginHeight: 0.6,
		BottomBandEndHeight:   1.0,

		KnownTranslators: []string{"template", "ocr"},
	}
}

// Load reads a YAML config file and overlays it on Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, micrerr.Wrap(micrerr.KindConfiguration, err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, micrerr.Wrap(micrerr.KindConfiguration, err, "parsing config %s", path)
	}
	return cfg, nil
}

// ApplyEnv overlays OCR_<SCREAMING_SNAKE_KEY> environment variables onto cfg,
// matching spec.md §6's "env names = OCR_ + SCREAMING_SNAKE of the camelCase
// key" rule.
func ApplyEnv(cfg Config) Config {
	setBool(&cfg.OverlapCorrection, "OCR_OVERLAP_CORRECTION")
	setInt(&cfg.OverlapPadding, "OCR_OVERLAP_PADDING")
	setInt(&cfg.MaxCharHeight, "OCR_MAX_CHAR_HEIGHT")
	setInt(&cfg.MaxCharWidth, "OCR_MAX_CHAR_WIDTH")
	setInt(&cfg.MaxCharArea, "OCR_MAX_CHAR_AREA")
	setInt(&cfg.MinContourArea, "OCR_MIN_CONTOUR_AREA")
	setInt(&cfg.MinContourHeight, "OCR_MIN_CONTOUR_HEIGHT")
	setInt(&cfg.MinContourWidth, "OCR_MIN_CONTOUR_WIDTH")
	setInt(&cfg.MaxSpaceBetweenCharsOfWord, "OCR_MAX_SPACE_BETWEEN_CHARS_OF_WORD")
	setInt(&cfg.MaxSpaceBetweenWords, "OCR_MAX_SPACE_BETWEEN_WORDS")
	setInt(&cfg.MaxTranslatorChoices, "OCR_MAX_TRANSLATOR_CHOICES")
	setString(&cfg.LogLevel, "OCR_LOG_LEVEL")
	setInt(&cfg.SlowRequestMS, "OCR_SLOW_REQUEST_MS")
	setInt(&cfg.HungRequestMS, "OCR_HUNG_REQUEST_MS")
	setString(&cfg.SlowOrHungRequestLogLevel, "OCR_SLOW_OR_HUNG_REQUEST_LOG_LEVEL")
	setFloat(&cfg.AnchorStopScore, "OCR_ANCHOR_STOP_SCORE")
	return cfg
}

func setBool(dst *bool, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

// Validate checks invariants that make a Config usable, returning a
// Configuration error (fatal) on failure.
func (c Config) Validate() error {
	if c.LogLevel != "" {
		if !isKnownLevel(c.LogLevel) {
			return micrerr.Configuration("invalid log level %q", c.LogLevel)
		}
	}
	if c.SlowOrHungRequestLogLevel != "" && !isKnownLevel(c.SlowOrHungRequestLogLevel) {
		return micrerr.Configuration("invalid log level %q", c.SlowOrHungRequestLogLevel)
	}
	// adaptive-threshold block size (§4.2) must be odd and > 1
	if blockSize := 19; blockSize%2 == 0 || blockSize <= 1 {
		return micrerr.Configuration("invalid adaptive-threshold block size %d", blockSize)
	}
	return nil
}

func isKnownLevel(s string) bool {
	switch s {
	case "error", "warn", "warning", "info", "debug":
		return true
	default:
		return false
	}
}

// ValidateTranslator returns a Configuration error if name isn't in
// KnownTranslators.
func (c Config) ValidateTranslator(name string) error {
	for _, t := range c.KnownTranslators {
		if t == name {
			return nil
		}
	}
	return micrerr.Configuration("unknown translator %q (known: %s)", name, strings.Join(c.KnownTranslators, ", "))
}

// EnvKey renders the OCR_ + SCREAMING_SNAKE env var name for a camelCase key,
// used by documentation/tests to keep the table in spec.md §6 and this
// struct's tags in sync.
func EnvKey(camel string) string {
	var b strings.Builder
	b.WriteString("OCR_")
	for i, r := range camel {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			continue
		}
		b.WriteRune(r - 'a' + 'A')
	}
	return b.String()
}
