// CLAUDE:SUMMARY Line reconstruction — first-match baseline clustering with adaptive tolerance, rotation-aware reading order.
package pdfpage

import (
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// DefaultItemHeight is used when neither the item nor its transform
	// provide a height.
	DefaultItemHeight = 9.0

	toleranceFactor = 0.5
	minTolerance    = 2.0
	maxTolerance    = 8.0
)

// Counters are the raw diagnostics accumulated while clustering.
type Counters struct {
	TotalItems    int
	Angles        AngleCounts
	SkewCount     int
	VerticalCount int
	Heights       []float64
	StrLens       []float64
	Jitter        []float64 // |y - baseline of the assigned line|
}

// Tolerance is the baseline distance within which an item of height h joins
// an existing line.
func Tolerance(h float64) float64 {
	return math.Max(minTolerance, math.Min(maxTolerance, h*toleranceFactor))
}

func itemHeight(it TextItem, t Matrix) float64 {
	if it.Height != 0 && !math.IsNaN(it.Height) {
		return it.Height
	}
	if d := math.Abs(t[3]); d != 0 && !math.IsNaN(d) {
		return d
	}
	return DefaultItemHeight
}

// Reconstruct clusters items into lines and orders them for reading given the
// declared page rotation. It never fails; an empty input yields no lines.
//
// An item joins the first line, in creation order, whose baseline lies within
// Tolerance(height) of the item Y. When an item is within tolerance of two
// lines the older line wins, even if the newer one is closer.
func Reconstruct(items []TextItem, styles Styles, rotation int) ([]Line, Counters) {
	var c Counters
	c.Heights = make([]float64, 0, len(items))
	c.StrLens = make([]float64, 0, len(items))
	c.Jitter = make([]float64, 0, len(items))

	var lines []*Line
	for _, it := range items {
		t := it.Transform
		if t == (Matrix{}) {
			t = Identity
		}
		x, y := t[4], t[5]
		h := itemHeight(it, t)

		c.TotalItems++
		c.Heights = append(c.Heights, h)
		c.StrLens = append(c.StrLens, float64(utf8.RuneCountInString(it.Text)))

		switch ClassifyAngle(t) {
		case Angle0:
			c.Angles.Deg0++
		case Angle90:
			c.Angles.Deg90++
		case Angle180:
			c.Angles.Deg180++
		case Angle270:
			c.Angles.Deg270++
		default:
			c.Angles.Other++
		}
		if IsSkewed(t) {
			c.SkewCount++
		}
		if it.FontName != "" && styles[it.FontName].Vertical {
			c.VerticalCount++
		}

		tol := Tolerance(h)
		var chosen *Line
		for _, l := range lines {
			if math.Abs(l.Baseline-y) <= tol {
				chosen = l
				break
			}
		}
		if chosen == nil {
			chosen = &Line{Baseline: y}
			lines = append(lines, chosen)
		}
		chosen.Items = append(chosen.Items, LineItem{X: x, Y: y, Height: h, Text: it.Text})
		c.Jitter = append(c.Jitter, math.Abs(chosen.Baseline-y))
	}

	out := make([]Line, len(lines))
	for i, l := range lines {
		xs := make([]float64, len(l.Items))
		for j, it := range l.Items {
			xs[j] = it.X
		}
		l.RepresentativeX = Median(xs)
		out[i] = *l
	}

	sortLines(out, rotation)
	for i := range out {
		items := out[i].Items
		sort.SliceStable(items, func(a, b int) bool { return items[a].X < items[b].X })
	}
	return out, c
}

// sortLines orders lines top to bottom as the page is displayed. PDF space
// grows upwards, so an unrotated page reads by descending Y.
func sortLines(lines []Line, rotation int) {
	var key func(Line) float64
	desc := false
	switch NormalizeRotation(rotation) {
	case 180:
		key = func(l Line) float64 { return l.Baseline }
	case 90:
		key = func(l Line) float64 { return l.RepresentativeX }
	case 270:
		key = func(l Line) float64 { return l.RepresentativeX }
		desc = true
	default:
		key = func(l Line) float64 { return l.Baseline }
		desc = true
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if desc {
			return key(lines[i]) > key(lines[j])
		}
		return key(lines[i]) < key(lines[j])
	})
}
