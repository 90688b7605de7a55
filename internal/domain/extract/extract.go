// Package extract picks the most plausible score literal out of noisy
// OCR fragments of a karaoke scoring screen.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kyoden/utagoe/internal/domain/model"
)

// Scoring screens label the primary score with the points glyph.
const pointsGlyph = "点"

// A candidate must look like a score literal: 1-3 integer digits, a
// period, 1-3 fractional digits (e.g. 92.170, 9.500).
var scorePattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}$`)

// Neighbor window bounds around a candidate fragment, in fragments.
const (
	neighborsBefore = 2
	neighborsAfter  = 3
)

type candidate struct {
	value    float64
	priority int
	area     float64
}

// Score scans OCR fragments for the best-guess score value.
//
// The first fragment is the full-page text and is never a candidate.
// Among matching fragments the winner maximizes (priority, area)
// lexicographically: a nearby points glyph dominates, bounding-box
// area breaks ties. Returns false when no fragment matches.
func Score(fragments []model.Fragment) (float64, bool) {
	if len(fragments) < 2 {
		return 0, false
	}

	var best *candidate
	for i := 1; i < len(fragments); i++ {
		text := normalize(fragments[i].Text)
		if !scorePattern.MatchString(text) {
			continue
		}
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			continue
		}

		c := candidate{
			value: value,
			area:  area(fragments[i].Vertices),
		}
		if hasPointsNeighbor(fragments, i) {
			c.priority = 1
		}

		if best == nil || c.priority > best.priority ||
			(c.priority == best.priority && c.area > best.area) {
			best = &c
		}
	}

	if best == nil {
		return 0, false
	}
	return best.value, true
}

// normalize trims whitespace and converts comma decimal separators.
func normalize(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
}

// hasPointsNeighbor reports whether any fragment in the window around
// index i contains the points glyph. The full-page fragment at index 0
// contains every glyph on screen and is never counted.
func hasPointsNeighbor(fragments []model.Fragment, i int) bool {
	lo := i - neighborsBefore
	if lo < 1 {
		lo = 1
	}
	hi := i + neighborsAfter + 1
	if hi > len(fragments) {
		hi = len(fragments)
	}
	for j := lo; j < hi; j++ {
		if j == i {
			continue
		}
		if strings.Contains(fragments[j].Text, pointsGlyph) {
			return true
		}
	}
	return false
}

// area computes the axis-aligned extent of a bounding polygon.
// Degenerate regions (fewer than 3 distinct vertices) count as zero.
func area(vertices []model.Point) float64 {
	if len(distinct(vertices)) < 3 {
		return 0
	}
	minX, maxX := vertices[0].X, vertices[0].X
	minY, maxY := vertices[0].Y, vertices[0].Y
	for _, v := range vertices[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	return (maxX - minX) * (maxY - minY)
}

func distinct(vertices []model.Point) []model.Point {
	out := vertices[:0:0]
	seen := make(map[model.Point]struct{}, len(vertices))
	for _, v := range vertices {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
