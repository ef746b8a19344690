package translate

import (
	"image"
	"sort"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/character"
	"github.com/finos/micrscan/internal/line"
	"github.com/finos/micrscan/internal/micrerr"
	"github.com/finos/micrscan/internal/parser"
	"github.com/finos/micrscan/internal/reference"
)

// TileSize matches the anchor finder's fixed match tile (spec.md §4.4).
const TileSize = 36

// TemplateMatch recognizes each character by normalized cross-correlation
// against every loaded reference glyph, picking the best score -- the same
// matching primitive the anchor finder uses against "0" alone, generalized
// here to the full glyph set.
type TemplateMatch struct {
	refs *reference.Set
}

// NewTemplateMatch builds a TemplateMatch translator against refs.
func NewTemplateMatch(refs *reference.Set) *TemplateMatch {
	return &TemplateMatch{refs: refs}
}

func (t *TemplateMatch) Name() string { return "template" }

func (t *TemplateMatch) Start() error { return nil }
func (t *TemplateMatch) Stop() error  { return nil }

func (t *TemplateMatch) TranslateLine(bin gocv.Mat, l *line.Line, chars []*character.Character) (LineResult, error) {
	sorted := make([]*character.Character, len(chars))
	copy(sorted, chars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rect.X < sorted[j].Rect.X })

	var result LineResult
	var raw string
	for _, c := range sorted {
		cr, err := t.TranslateChar(bin, c)
		if err != nil {
			continue
		}
		result.Chars = append(result.Chars, cr)
		raw += cr.Value
	}

	parsed := parser.Parse(raw)
	result.RoutingNumber = parsed.RoutingNumber
	result.AccountNumber = parsed.AccountNumber
	result.CheckNumber = parsed.CheckNumber
	result.MicrLine = parsed.MicrLine
	return result, nil
}

func (t *TemplateMatch) TranslateChar(bin gocv.Mat, c *character.Character) (CharResult, error) {
	if c.Rect.Width <= 0 || c.Rect.Height <= 0 {
		return CharResult{}, micrerr.Detection("character has degenerate rectangle")
	}
	region := bin.Region(image.Rect(c.Rect.X, c.Rect.Y, c.Rect.MaxX(), c.Rect.MaxY()))
	defer region.Close()

	tile := gocv.NewMat()
	defer tile.Close()
	gocv.Resize(region, &tile, image.Point{X: TileSize, Y: TileSize}, 0, 0, gocv.InterpolationLinear)

	var best CharResult
	found := false
	for _, g := range t.refs.Glyphs {
		template := t.refs.Template(g, TileSize)
		score := matchScore(tile, template)
		template.Close()
		if !found || score > best.Score {
			best = CharResult{Value: g.Name, Score: score}
			found = true
		}
	}
	if !found {
		return CharResult{}, micrerr.Detection("no reference glyphs loaded")
	}
	return best, nil
}

func matchScore(tile, template gocv.Mat) float64 {
	mask := gocv.NewMat()
	defer mask.Close()
	result := gocv.NewMat()
	defer result.Close()
	gocv.MatchTemplate(tile, template, &result, gocv.TmCcorrNormed, mask)
	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal) * 100
}

var _ Translator = (*TemplateMatch)(nil)
