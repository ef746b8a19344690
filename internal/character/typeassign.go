package character

import (
	"sort"

	"github.com/finos/micrscan/internal/contour"
	"github.com/finos/micrscan/internal/geometry"
)

// AssignTypes runs spec.md §4.7.2's four ordered passes over chars (already
// X-sorted with dense indices), snapping Y/height where a pass says to and
// returning chars re-sorted/reindexed if rectangle-adjust changed anything.
// roots are the containment rectangles type 1 tests against; the anchor's
// rectangle is always included by the caller.
func AssignTypes(chars []*Character, roots []geometry.Rect, maxCharWidth, maxCharHeight, containmentPad int) []*Character {
	assignType1(chars, roots)
	assignType2(chars, maxCharWidth, maxCharHeight, containmentPad)
	rectangleAdjust(chars)
	resortAndReindex(chars)
	assignType3(chars, maxCharWidth, maxCharHeight)

	for _, c := range chars {
		if c.Type == TypeUnknown {
			c.Type = Type4
		}
	}
	return chars
}

// typedForNeighbour reports whether t is one of the types a neighbour-based pass may
// anchor against (Medium is represented implicitly: every Character here
// already came from Segment, so "Medium, type-1, or type-2" collapses to
// "already typed by an earlier pass").
func typedForNeighbour(t Type) bool {
	return t == Type1 || t == Type2
}

func assignType1(chars []*Character, roots []geometry.Rect) {
	for _, c := range chars {
		for _, r := range roots {
			if r.Contains(c.Rect) {
				c.Type = Type1
				break
			}
		}
	}
}

// estimateRect builds the containment-padded max_char_width x
// max_char_height rectangle placed immediately adjacent to neighbour, on
// the given side.
func estimateRect(neighbour *Character, side int, maxW, maxH, pad int) geometry.Rect {
	x := neighbour.Rect.MaxX()
	if side < 0 {
		x = neighbour.Rect.X - maxW
	}
	r := geometry.NewRect(x, neighbour.Rect.Y, maxW, maxH)
	y0 := r.Y - pad
	if y0 < 0 {
		y0 = 0
	}
	return geometry.RectFromClosed(r.X-pad, y0, r.MaxX()-1+pad, r.MaxY()-1+pad)
}

func assignType2(chars []*Character, maxW, maxH, pad int) {
	for i, c := range chars {
		if c.Type != TypeUnknown {
			continue
		}
		if i > 0 && typedForNeighbour(chars[i-1].Type) {
			est := estimateRect(chars[i-1], 1, maxW, maxH, pad)
			if est.YRange().Contains(float64(c.Rect.Y)) && est.YRange().Contains(float64(c.Rect.MaxY())) {
				c.Type = Type2
			}
		}
	}
	for i := len(chars) - 1; i >= 0; i-- {
		c := chars[i]
		if c.Type != TypeUnknown {
			continue
		}
		if i < len(chars)-1 && typedForNeighbour(chars[i+1].Type) {
			est := estimateRect(chars[i+1], -1, maxW, maxH, pad)
			if est.YRange().Contains(float64(c.Rect.Y)) && est.YRange().Contains(float64(c.Rect.MaxY())) {
				c.Type = Type2
			}
		}
	}
}

// rectangleAdjust snaps an untyped character's Y/height to a typed
// neighbour's, per §4.7.2 step 3. X/width may shrink to the pixel extents
// actually present in the new band; since this package doesn't re-scan
// pixels here (the contours already carry their extracted geometry), the
// adjustment is approximated by intersecting the character's existing
// rectangle with the new Y-band, which leaves X and width unchanged.
func rectangleAdjust(chars []*Character) {
	for i, c := range chars {
		if c.Type != TypeUnknown {
			continue
		}
		var neighbour *Character
		if i > 0 && typedForNeighbour(chars[i-1].Type) {
			neighbour = chars[i-1]
		} else if i < len(chars)-1 && typedForNeighbour(chars[i+1].Type) {
			neighbour = chars[i+1]
		}
		if neighbour == nil {
			continue
		}
		band := geometry.NewRect(c.Rect.X, neighbour.Rect.Y, c.Rect.Width, neighbour.Rect.Height)
		if inter, ok := c.Rect.Intersection(band); ok {
			c.Rect = inter
		} else {
			c.Rect = band
		}
	}
}

// resortAndReindex re-sorts chars ascending by X and renumbers Index after
// rectangleAdjust (§4.7.2 step 3: "re-sort by X and reindex").
// rectangleAdjust only changes Y and height, so it leaves every X as it was.
func resortAndReindex(chars []*Character) {
	sort.Slice(chars, func(i, j int) bool { return chars[i].Rect.X < chars[j].Rect.X })
	for i, c := range chars {
		c.Index = i
	}
}

// nearEstimateRect is the unpadded, same-size rectangle placed immediately
// adjacent to neighbour (§4.7.2 step 4).
func nearEstimateRect(neighbour *Character, side int) geometry.Rect {
	x := neighbour.Rect.MaxX()
	if side < 0 {
		x = neighbour.Rect.X - neighbour.Rect.Width
	}
	return geometry.NewRect(x, neighbour.Rect.Y, neighbour.Rect.Width, neighbour.Rect.Height)
}

func assignType3(chars []*Character, maxW, maxH int) {
	for i, c := range chars {
		if c.Type != TypeUnknown {
			continue
		}
		var neighbour *Character
		var side int
		if i > 0 && typedForNeighbour(chars[i-1].Type) {
			neighbour, side = chars[i-1], 1
		} else if i < len(chars)-1 && typedForNeighbour(chars[i+1].Type) {
			neighbour, side = chars[i+1], -1
		}
		if neighbour == nil {
			continue
		}
		near := nearEstimateRect(neighbour, side)
		if !near.Intersects(c.Rect) {
			continue
		}
		mid := float64(neighbour.Rect.Y) + float64(neighbour.Rect.Height)/2
		if float64(c.Rect.MaxY()) > mid {
			c.Type = Type3
			c.Rect = geometry.NewRect(c.Rect.X, neighbour.Rect.Y, c.Rect.Width, neighbour.Rect.Height)
		}
	}
}

// LineBoundingRect implements spec.md §4.7.3.
func LineBoundingRect(chars []*Character, allOnLine []*contour.Contour, imgW, imgH int) geometry.Rect {
	var xMin, xMax int
	var yMin, yMax int
	haveX, haveY := false, false

	for _, c := range chars {
		switch c.Type {
		case Type1, Type2, Type3:
			if !haveX || c.Rect.X < xMin {
				xMin = c.Rect.X
			}
			if !haveX || c.Rect.MaxX() > xMax {
				xMax = c.Rect.MaxX()
			}
			haveX = true
		}
		switch c.Type {
		case Type1, Type2:
			if !haveY || c.Rect.Y < yMin {
				yMin = c.Rect.Y
			}
			if !haveY || c.Rect.MaxY() > yMax {
				yMax = c.Rect.MaxY()
			}
			haveY = true
		}
	}

	if !haveX || !haveY {
		var union geometry.Rect
		for _, c := range allOnLine {
			union = union.Union(c.Rect)
		}
		return union.ClampToImage(imgW, imgH)
	}

	r := geometry.RectFromClosed(xMin, yMin, xMax-1, yMax-1)
	r = geometry.NewRect(r.X-5, r.Y, r.Width+10, r.Height)
	return r.ClampToImage(imgW, imgH)
}
