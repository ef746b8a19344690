// Package session implements spec.md §5/§6's request facade: the
// preprocess/scan entry points, each running to completion sequentially
// over its own deletion-scope, plus the soft-deadline timer that flushes
// buffered debug logs when a request runs long. Grounded on
// internal/app/state.go's mutex-guarded lifecycle struct, generalized from
// one long-lived GUI state object into a short-lived per-request value, and
// internal/project/project.go's pattern of a facade method that owns a
// resource for the duration of one call and releases it on every exit path.
package session

import (
	"sort"
	"time"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/anchor"
	"github.com/finos/micrscan/internal/binarize"
	"github.com/finos/micrscan/internal/character"
	"github.com/finos/micrscan/internal/config"
	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
	"github.com/finos/micrscan/internal/line"
	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/micrlog"
	"github.com/finos/micrscan/internal/overlap"
	"github.com/finos/micrscan/internal/preprocess"
	"github.com/finos/micrscan/internal/raster"
	"github.com/finos/micrscan/internal/rasterio"
	"github.com/finos/micrscan/internal/reference"
	"github.com/finos/micrscan/internal/translate"
)

// Session is the long-lived facade: startup-loaded config, reference
// glyphs, and translator set, all treated as immutable shared state per
// spec.md §5 ("readers require no synchronization"). One Session services
// many concurrent requests, each on its own Scope.
type Session struct {
	cfg         config.Config
	refs        *reference.Set
	translators map[string]translate.Translator
}

// New builds a Session. translators must already be Start()-ed; Session
// does not own their lifecycle beyond using them.
func New(cfg config.Config, refs *reference.Set, translators map[string]translate.Translator) *Session {
	return &Session{cfg: cfg, refs: refs, translators: translators}
}

// pipeline is the materialized intermediate state of one request, kept
// around so debug snapshots can be captured at each named stage (spec.md
// §6: "deskewed", "binarized", "line", "overlap-corrected", "characters").
type pipeline struct {
	scope *raster.Scope
	log   *micrlog.Logger

	deskewed gocv.Mat
	binary   gocv.Mat

	lineResult *line.Line
	characters []*character.Character
	overlapHit bool
}

// Preprocess runs spec.md §4.1 alone and returns whatever debug snapshots
// the request asked for, with no translator results (scan-only fields of
// the response are left zero).
func (s *Session) Preprocess(req Request) (*Response, error) {
	timer := newDeadlineTimer(s.cfg, s.log(req))
	defer timer.stop()

	scope := raster.NewScope(timer.log)
	defer scope.Release()

	input, err := decodeRequestImage(req)
	if err != nil {
		return softErrorResponse(req, err)
	}
	defer input.Close()

	crop := requestCropFractions(req, s.cfg)
	result, err := preprocess.Run(scope, input, crop)
	if err != nil {
		return softErrorResponse(req, err)
	}

	resp := &Response{ID: req.ID, Translators: map[string]TranslatorResult{}}
	if wantsDebug(req, "deskewed") {
		img, encErr := encodeDebugImage("deskewed", result.Raster.Mat)
		if encErr == nil {
			resp.Images = append(resp.Images, img)
		}
	}
	return resp, nil
}

// Scan runs the full pipeline (§2's seven stages) and returns translator
// results for every requested (or configured default) translator name.
func (s *Session) Scan(req Request) (*Response, error) {
	logger := s.log(req)
	timer := newDeadlineTimer(s.cfg, logger)
	defer timer.stop()

	if err := validateTranslatorNames(req, s.cfg); err != nil {
		return softErrorResponse(req, err)
	}

	scope := raster.NewScope(logger)
	defer scope.Release()

	input, err := decodeRequestImage(req)
	if err != nil {
		return softErrorResponse(req, err)
	}
	defer input.Close()

	p := &pipeline{scope: scope, log: logger}

	crop := requestCropFractions(req, s.cfg)
	pre, err := preprocess.Run(scope, input, crop)
	if err != nil {
		return softErrorResponse(req, err)
	}
	p.deskewed = pre.Raster.Mat

	binRaster, err := binarize.Binarize(scope, *pre.Raster, binarize.DefaultParams())
	if err != nil {
		return softErrorResponse(req, err)
	}
	p.binary = binRaster.Mat

	resp := &Response{ID: req.ID, Translators: map[string]TranslatorResult{}}
	addDebug := func(name string, mat gocv.Mat) {
		if !wantsDebug(req, name) {
			return
		}
		img, encErr := encodeDebugImage(name, mat)
		if encErr == nil {
			resp.Images = append(resp.Images, img)
		}
	}
	addDebug("deskewed", p.deskewed)
	addDebug("binarized", p.binary)

	built, err := s.buildLine(p)
	if err != nil {
		return softErrorResponse(req, err)
	}
	if !built {
		// Soft Detection failure: no anchor, no Line. Empty result, no error.
		resp.Overlap = false
		return resp, nil
	}
	addDebug("line", p.binary)

	correct := s.cfg.OverlapCorrection
	if req.Correct != nil {
		correct = *req.Correct
	}
	if p.lineResult.Overlap && correct {
		overlap.Correct(p.binary, p.lineResult, s.cfg.OverlapPadding, overlap.DefaultParams())
		p.overlapHit = true
		addDebug("overlap-corrected", p.binary)

		// Re-enter stage 4: rebuild the Line from the cleaned raster.
		if _, err := s.buildLine(p); err != nil {
			return softErrorResponse(req, err)
		}
	}
	resp.Overlap = p.overlapHit

	s.segmentCharacters(p)
	addDebug("characters", p.binary)

	names := translatorNames(req, s.cfg)
	for _, name := range names {
		t, ok := s.translators[name]
		if !ok {
			// Known translator name (validateTranslatorNames already rejected
			// anything else) whose backend never started successfully --
			// soft per-backend failure, not fatal.
			logger.Warn("translator %q not running, skipping", name)
			continue
		}
		lr, err := t.TranslateLine(p.binary, p.lineResult, p.characters)
		if err != nil {
			logger.Info("translator %q failed: %v", name, err)
			continue
		}
		if lr.CheckNumber == "" {
			if fallback, ok := t.(translate.FullPageFallback); ok {
				if checkNumber, fbErr := fallback.FullPageCheckNumber(p.binary, p.lineResult); fbErr == nil {
					lr.CheckNumber = checkNumber
				} else {
					logger.Debug("translator %q full-page fallback: %v", name, fbErr)
				}
			}
		}
		logAccuracy(logger, req, name, lr)
		resp.Translators[name] = TranslatorResult{
			Result: FieldResult{
				RoutingNumber: lr.RoutingNumber,
				AccountNumber: lr.AccountNumber,
				CheckNumber:   lr.CheckNumber,
				MicrLine:      lr.MicrLine,
			},
			Details: translatorDetails(lr),
		}
	}

	return resp, nil
}

// buildLine runs stages 3 (contour extraction) and 4-5 (anchor, Line
// build) against p.binary, storing the result on p. ok is false on a soft
// Detection miss (no anchor found); err is non-nil only for fatal errors.
func (s *Session) buildLine(p *pipeline) (bool, error) {
	filterParams := contour.FilterParams{
		MinWidth:  s.cfg.MinContourWidth,
		MinHeight: s.cfg.MinContourHeight,
		MinArea:   float64(s.cfg.MinContourArea),
		MaxWidth:  s.cfg.MaxCharWidth * 4,
		MaxHeight: s.cfg.MaxCharHeight * 4,
		MaxArea:   float64(s.cfg.MaxCharArea) * 16,
	}
	all := contour.Extract(p.binary)
	all = contour.Filter(all, filterParams, p.binary.Cols(), p.binary.Rows())

	found, ok, err := anchor.Find(p.scope, p.binary, all, s.refs, s.cfg.AnchorStopScore)
	if err != nil {
		return false, err
	}
	if !ok {
		p.log.Debug("no anchor found")
		return false, nil
	}

	p.lineResult = line.Build(found.Contour, all, p.binary.Cols(), p.binary.Rows())
	return true, nil
}

// segmentCharacters runs stage 7 (§4.7): grouping, type assignment, and the
// final Line bounding rectangle.
func (s *Session) segmentCharacters(p *pipeline) {
	var mediums []*contour.Contour
	for _, c := range p.lineResult.Contours {
		if contour.ClassifySize(c, p.lineResult.Thresh.MinArea, p.lineResult.Thresh.MinHeight, p.lineResult.Thresh.MaxArea) == contour.SizeMedium {
			mediums = append(mediums, c)
		}
	}
	sort.Slice(mediums, func(i, j int) bool { return mediums[i].Rect.X < mediums[j].Rect.X })

	stats := character.DeriveStats(mediums)
	chars := character.Segment(p.lineResult, stats)

	roots := []geometry.Rect{p.lineResult.Anchor.Rect}
	chars = character.AssignTypes(chars, roots, s.cfg.MaxCharWidth, s.cfg.MaxCharHeight, p.lineResult.Thresh.ContainmentPad)

	var kept []*character.Character
	for _, c := range chars {
		if c.Type != character.Type4 {
			kept = append(kept, c)
		}
	}
	p.characters = kept
	bounds := character.LineBoundingRect(kept, p.lineResult.Contours, p.binary.Cols(), p.binary.Rows())
	p.log.Debug("line bounding rect: %+v", bounds)
}

// log builds a request-scoped Logger at the request's logLevel, falling
// back to the session's configured default. An unrecognized level string
// falls back to Info rather than failing the request -- logLevel is a
// hint, not a fatal Configuration input.
func (s *Session) log(req Request) *micrlog.Logger {
	levelStr := req.LogLevel
	if levelStr == "" {
		levelStr = s.cfg.LogLevel
	}
	level, err := micrlog.ParseLevel(levelStr)
	if err != nil {
		level = micrlog.LevelInfo
	}
	return micrlog.New(level, 256)
}

func decodeRequestImage(req Request) (gocv.Mat, error) {
	raw := rasterio.DecodeBase64OrRaw(req.Image.Buffer)
	return rasterio.Decode(rasterio.Format(req.Image.Format), raw)
}

func requestCropFractions(req Request, cfg config.Config) preprocess.CropFractions {
	crop := preprocess.DefaultCropFractions()
	crop.BeginHeight = cfg.BottomBandBeginHeight
	crop.EndHeight = cfg.BottomBandEndHeight
	if req.Crop == nil {
		return crop
	}
	if req.Crop.Begin != nil {
		if req.Crop.Begin.Width != nil {
			crop.BeginWidth = *req.Crop.Begin.Width
		}
		if req.Crop.Begin.Height != nil {
			crop.BeginHeight = *req.Crop.Begin.Height
		}
	}
	if req.Crop.End != nil {
		if req.Crop.End.Width != nil {
			crop.EndWidth = *req.Crop.End.Width
		}
		if req.Crop.End.Height != nil {
			crop.EndHeight = *req.Crop.End.Height
		}
	}
	return crop
}

func wantsDebug(req Request, name string) bool {
	for _, d := range req.Debug {
		if d == name {
			return true
		}
	}
	return false
}

// translatorDetails builds the response's optional per-character detail
// block from a translator's raw result (spec.md §6: "details?: {value,
// score, chars:[...]}"). Value is the raw concatenated MICR string before
// grammar parsing; score is the mean of the per-character scores.
func translatorDetails(lr translate.LineResult) *TranslatorDetails {
	if len(lr.Chars) == 0 {
		return nil
	}
	var raw string
	var total float64
	chars := make([]CharDetail, len(lr.Chars))
	for i, c := range lr.Chars {
		raw += c.Value
		total += c.Score
		chars[i] = CharDetail{Value: c.Value, Score: c.Score}
	}
	return &TranslatorDetails{
		Value: raw,
		Score: total / float64(len(lr.Chars)),
		Chars: chars,
	}
}

func encodeDebugImage(name string, mat gocv.Mat) (DebugImage, error) {
	buf, err := rasterio.Encode(rasterio.FormatPNG, mat)
	if err != nil {
		return DebugImage{}, err
	}
	return DebugImage{
		Name:   name,
		Format: "png",
		Buffer: buf,
		Width:  mat.Cols(),
		Height: mat.Rows(),
	}, nil
}

// translatorNames picks the requested translator names, capped to
// cfg.MaxTranslatorChoices, falling back to every known translator if the
// request didn't name any.
func translatorNames(req Request, cfg config.Config) []string {
	names := req.Translators
	if len(names) == 0 {
		names = cfg.KnownTranslators
	}
	if cfg.MaxTranslatorChoices > 0 && len(names) > cfg.MaxTranslatorChoices {
		names = names[:cfg.MaxTranslatorChoices]
	}
	return names
}

// logAccuracy logs a debug-level comparison against req.Actual, the scan-only
// ground-truth MICR string (spec.md §6) supplied by callers running an
// accuracy harness. This is diagnostic only -- it never affects the
// response.
func logAccuracy(log *micrlog.Logger, req Request, translatorName string, lr translate.LineResult) {
	if req.Actual == "" {
		return
	}
	if lr.MicrLine == req.Actual {
		log.Debug("translator %q matched actual MICR line", translatorName)
		return
	}
	log.Info("translator %q mismatch: got %q, want %q", translatorName, lr.MicrLine, req.Actual)
}

// validateTranslatorNames rejects any explicitly requested translator name
// that isn't in cfg.KnownTranslators: an unknown name is a fatal
// Configuration error per spec.md §7, not a soft per-backend failure. A
// request that doesn't name any translators defers to cfg.KnownTranslators
// and needs no validation here.
func validateTranslatorNames(req Request, cfg config.Config) error {
	for _, name := range req.Translators {
		if err := cfg.ValidateTranslator(name); err != nil {
			return err
		}
	}
	return nil
}

// softErrorResponse turns a fatal Configuration/Input error into either a
// returned error (the caller's transport layer decides how to surface it)
// or, for a Detection error, an empty non-error response per spec.md §7.
func softErrorResponse(req Request, err error) (*Response, error) {
	if micrerr.Is(err, micrerr.KindDetection) {
		return &Response{ID: req.ID, Translators: map[string]TranslatorResult{}}, nil
	}
	return nil, err
}

// deadlineTimer arms slow_request_ms and hung_request_ms as two independent
// one-shot timers per request (spec.md §5/§7): either crossing its
// threshold logs a warning/error and flushes the buffered debug ring at
// slow_or_hung_request_log_level. Grounded on internal/app/hotreload.go's
// time.Ticker-driven periodic check pattern, narrowed here to a pair of
// one-shot timers per request instead of an indefinite ticker.
type deadlineTimer struct {
	log       *micrlog.Logger
	level     micrlog.Level
	slowTimer *time.Timer
	hungTimer *time.Timer
}

func newDeadlineTimer(cfg config.Config, log *micrlog.Logger) *deadlineTimer {
	level, err := micrlog.ParseLevel(cfg.SlowOrHungRequestLogLevel)
	if err != nil {
		level = micrlog.LevelDebug
	}
	t := &deadlineTimer{log: log, level: level}
	if cfg.SlowRequestMS > 0 {
		t.slowTimer = time.AfterFunc(time.Duration(cfg.SlowRequestMS)*time.Millisecond, func() {
			log.Warn("request exceeded slow_request_ms=%d", cfg.SlowRequestMS)
			log.FlushBuffered(level)
		})
	}
	if cfg.HungRequestMS > 0 {
		t.hungTimer = time.AfterFunc(time.Duration(cfg.HungRequestMS)*time.Millisecond, func() {
			log.Error("request exceeded hung_request_ms=%d", cfg.HungRequestMS)
			log.FlushBuffered(level)
		})
	}
	return t
}

func (t *deadlineTimer) stop() {
	if t.slowTimer != nil {
		t.slowTimer.Stop()
	}
	if t.hungTimer != nil {
		t.hungTimer.Stop()
	}
}
