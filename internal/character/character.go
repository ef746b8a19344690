// Package character implements spec.md §4.7: grouping a Line's contours
// into characters and assigning each a type, finally computing the Line's
// bounding rectangle from the typed survivors. Grounded on
// internal/component/group.go's group-then-classify shape: buffer
// candidates, probe a projected window, commit a group once its area
// clears a threshold, then run ordered classification passes over
// whatever wasn't already typed.
package character

import (
	"math"
	"sort"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
	"github.com/finos/micrscan/internal/line"
)

// Type is a character's classification, assigned in the order spec.md
// §4.7.2 names. Type4 characters are dropped from the final output.
type Type int

const (
	TypeUnknown Type = iota
	Type1
	Type2
	Type3
	Type4
)

// Character is one grouped, typed symbol in the MICR line.
type Character struct {
	Index    int
	Contours []*contour.Contour
	Rect     geometry.Rect
	Type     Type
}

// Stats are the Medium-contour-only aggregate distances §4.7's grouping
// windows are built from.
type Stats struct {
	MaxWidth       int
	AvgWidth       float64
	MinDistBetween int
	MaxDistBetween int
	AvgDistBetween float64
}

// DeriveStats computes Stats from a line's Medium contours, ordered by X.
func DeriveStats(mediums []*contour.Contour) Stats {
	if len(mediums) == 0 {
		return Stats{}
	}
	var s Stats
	var totalW float64
	for _, c := range mediums {
		if c.Rect.Width > s.MaxWidth {
			s.MaxWidth = c.Rect.Width
		}
		totalW += float64(c.Rect.Width)
	}
	s.AvgWidth = totalW / float64(len(mediums))

	if len(mediums) < 2 {
		return s
	}
	s.MinDistBetween = math.MaxInt
	var totalGap float64
	n := 0
	for i := 1; i < len(mediums); i++ {
		gap := mediums[i].Rect.X - mediums[i-1].Rect.MaxX()
		if gap < s.MinDistBetween {
			s.MinDistBetween = gap
		}
		if gap > s.MaxDistBetween {
			s.MaxDistBetween = gap
		}
		totalGap += float64(gap)
		n++
	}
	if n > 0 {
		s.AvgDistBetween = totalGap / float64(n)
	}
	if s.MinDistBetween == math.MaxInt {
		s.MinDistBetween = 0
	}
	return s
}

// Segment runs §4.7.1's character iteration over l's contours (already
// sorted by X), returning the emitted characters in X order with dense
// indices.
func Segment(l *line.Line, stats Stats) []*Character {
	sorted := make([]*contour.Contour, len(l.Contours))
	copy(sorted, l.Contours)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rect.X < sorted[j].Rect.X })

	var chars []*Character
	var buffer []*contour.Contour

	flushRight := func(prev *Character) {
		for {
			if prev == nil || len(buffer) == 0 {
				return
			}
			win := geometry.NewRect(
				prev.Rect.MaxX()+stats.MinDistBetween, prev.Rect.Y,
				stats.MaxWidth, prev.Rect.Height)
			group, rest := collectIntersecting(buffer, win, l.Thresh.MinArea)
			if group == nil {
				return
			}
			buffer = rest
			chars = append(chars, group)
			prev = group
		}
	}

	for _, c := range sorted {
		size := contour.ClassifySize(c, l.Thresh.MinArea, l.Thresh.MinHeight, l.Thresh.MaxArea)
		if size != contour.SizeMedium {
			buffer = append(buffer, c)
			continue
		}

		var prev *Character
		if len(chars) > 0 {
			prev = chars[len(chars)-1]
		}
		flushRight(prev)

		// Probe left from this upcoming Medium using the wider window.
		leftWidth := stats.MaxWidth + (stats.MaxDistBetween - stats.MinDistBetween)
		leftWin := geometry.NewRect(c.Rect.X-leftWidth, c.Rect.Y, leftWidth, c.Rect.Height)
		if group, rest := collectIntersecting(buffer, leftWin, l.Thresh.MinArea); group != nil {
			buffer = rest
			chars = append(chars, group)
		}

		chars = append(chars, &Character{Contours: []*contour.Contour{c}, Rect: c.Rect})
	}

	if len(chars) > 0 {
		flushRight(chars[len(chars)-1])
	}

	sort.Slice(chars, func(i, j int) bool { return chars[i].Rect.X < chars[j].Rect.X })
	for i, ch := range chars {
		ch.Index = i
	}
	return chars
}

// collectIntersecting gathers every contour in buffer intersecting win,
// substituting large contours with their restricted subcontour, and
// returns the grouped character plus the remaining buffer if the group's
// area clears minArea; otherwise returns (nil, buffer) unchanged.
func collectIntersecting(buffer []*contour.Contour, win geometry.Rect, minArea float64) (*Character, []*contour.Contour) {
	var used []*contour.Contour
	var rest []*contour.Contour
	var unionRect geometry.Rect

	for _, c := range buffer {
		if !c.Rect.Intersects(win) {
			rest = append(rest, c)
			continue
		}
		cc := c
		if c.Size == contour.SizeLarge {
			cc = contour.RestrictToRect(c, win)
		}
		used = append(used, cc)
		unionRect = unionRect.Union(cc.Rect)
	}

	if len(used) == 0 || float64(unionRect.Area()) <= minArea {
		return nil, buffer
	}
	return &Character{Contours: used, Rect: unionRect}, rest
}
