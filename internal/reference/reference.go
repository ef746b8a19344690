// Package reference loads the MICR reference glyph asset: a binary image of
// every glyph in index order plus a descriptor list like
// ["1","2",...,"0","T:3","U:3","A:3","D:3"] where ":N" means that glyph is
// composed of N contours (spec.md §6). Loaded once at startup and treated as
// immutable shared state thereafter (spec.md §5), the way
// internal/via/training.go loads its reference samples once and
// internal/component/library.go builds an indexed asset lookup.
package reference

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
	"github.com/finos/micrscan/internal/micrerr"
)

// Glyph is one named reference character, possibly made of several
// contours (the control symbols T/U/A/D are typically multi-stroke). Rect is
// the union bounding box of those contours within the reference asset.
type Glyph struct {
	Name     string
	Contours []*contour.Contour
	Rect     geometry.Rect
}

// Set is the immutable, startup-loaded collection of reference glyphs. The
// underlying asset Mat is kept open for the process lifetime; readers need
// no synchronization since it's never mutated after Load returns.
type Set struct {
	asset  gocv.Mat
	Glyphs []Glyph
	byName map[string]Glyph
}

// ByName returns the named glyph ("0", "T", ...).
func (s *Set) ByName(name string) (Glyph, bool) {
	g, ok := s.byName[name]
	return g, ok
}

// Zero returns the reference "0" glyph, the anchor finder's required
// template (spec.md §4.4). A missing "0" template is a fatal Configuration
// error.
func (s *Set) Zero() (Glyph, error) {
	g, ok := s.ByName("0")
	if !ok {
		return Glyph{}, micrerr.Configuration("no %q reference template loaded", "0")
	}
	return g, nil
}

// Template crops and resizes a glyph's region of the asset image to size x
// size for template matching (spec.md §4.4's 36x36 tile). The caller owns
// the returned Mat and must Close it.
func (s *Set) Template(g Glyph, size int) gocv.Mat {
	region := s.asset.Region(image.Rect(g.Rect.X, g.Rect.Y, g.Rect.MaxX(), g.Rect.MaxY()))
	defer region.Close()
	tile := gocv.NewMat()
	gocv.Resize(region, &tile, image.Point{X: size, Y: size}, 0, 0, gocv.InterpolationLinear)
	return tile
}

// Close releases the underlying asset Mat. Call once at process shutdown.
func (s *Set) Close() error {
	return s.asset.Close()
}

// Load binarizes asset (a BGR or grey Mat containing every glyph laid out
// left to right) and slices its contours according to descriptors, each
// either a bare name ("1") for a single-contour glyph or "name:N" for one
// composed of N contours. Load takes ownership of asset and keeps it open
// for the lifetime of the returned Set.
func Load(asset gocv.Mat, descriptors []string) (*Set, error) {
	grey := gocv.NewMat()
	defer grey.Close()
	if asset.Channels() == 1 {
		asset.CopyTo(&grey)
	} else {
		gocv.CvtColor(asset, &grey, gocv.ColorBGRToGray)
	}

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(grey, &bin, 0, 255,
		gocv.ThresholdType(int(gocv.ThresholdBinaryInv)|int(gocv.ThresholdOtsu)))

	all := contour.Extract(bin)
	all = contour.Filter(all, contour.FilterParams{MinWidth: 1, MinHeight: 1}, bin.Cols(), bin.Rows())

	set := &Set{asset: asset, byName: make(map[string]Glyph)}

	pos := 0
	for _, desc := range descriptors {
		name, n, err := parseDescriptor(desc)
		if err != nil {
			return nil, micrerr.Configuration("reference descriptor %q: %v", desc, err)
		}
		if pos+n > len(all) {
			return nil, micrerr.Configuration(
				"reference descriptors require %d contours but only %d were extracted", pos+n, len(all))
		}
		slice := all[pos : pos+n]
		pos += n

		rect := geometry.Rect{}
		for _, c := range slice {
			rect = rect.Union(c.Rect)
		}

		g := Glyph{Name: name, Contours: slice, Rect: rect}
		set.Glyphs = append(set.Glyphs, g)
		set.byName[name] = g
	}

	return set, nil
}

func parseDescriptor(desc string) (name string, count int, err error) {
	parts := strings.SplitN(desc, ":", 2)
	if len(parts) == 1 {
		return parts[0], 1, nil
	}
	n, convErr := strconv.Atoi(parts[1])
	if convErr != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid contour count in %q", desc)
	}
	return parts[0], n, nil
}
