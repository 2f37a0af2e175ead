// CLAUDE:SUMMARY Types shared by the page extractor: text items, styles, lines, flags, metrics, result.
package pdfpage

// Matrix is a PDF affine transform [a b c d e f].
type Matrix [6]float64

// Identity is the unit transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// TextItem is one positioned glyph run as decoded from a page content stream.
// E and F of the transform are the baseline origin in page space.
type TextItem struct {
	Transform Matrix
	Text      string
	Height    float64 // nominal glyph height; 0 means unknown
	FontName  string
}

// Style holds the attributes of a declared font that the extractor consumes.
type Style struct {
	Vertical bool `json:"vertical"`
}

// Styles maps a font identifier to its style. A missing key is not an error.
type Styles map[string]Style

// Page is what the document collaborator yields for one page.
type Page struct {
	Items    []TextItem
	Styles   Styles
	Rotation int // declared /Rotate in degrees, not necessarily normalized
}

// LineItem is an item after assignment to a line.
type LineItem struct {
	X      float64
	Y      float64
	Height float64
	Text   string
}

// Line is a cluster of items sharing a baseline.
type Line struct {
	Baseline        float64 // Y of the first assigned item
	RepresentativeX float64 // median X of the items
	Items           []LineItem
}

// Text joins the trimmed, non-empty item texts with single spaces.
func (l Line) Text() string {
	return joinItems(l.Items)
}

// Flags are the boolean quality signals of an extraction.
type Flags struct {
	PageRotated                 bool `json:"pageRotated"`
	RotatedTextDetected         bool `json:"rotatedTextDetected"`
	NonOrthogonalAnglesDetected bool `json:"nonOrthogonalAnglesDetected"`
	SkewDetected                bool `json:"skewDetected"`
	VerticalTextDetected        bool `json:"verticalTextDetected"`
	HighLineJitter              bool `json:"highLineJitter"`
	ManyTinyItems               bool `json:"manyTinyItems"`
	SuspiciousAnglesShare       bool `json:"suspiciousAnglesShare"`
}

// AngleCounts tallies items per rotation bucket.
type AngleCounts struct {
	Deg0   int `json:"deg0"`
	Deg90  int `json:"deg90"`
	Deg180 int `json:"deg180"`
	Deg270 int `json:"deg270"`
	Other  int `json:"other"`
}

// Total returns the number of classified items.
func (a AngleCounts) Total() int {
	return a.Deg0 + a.Deg90 + a.Deg180 + a.Deg270 + a.Other
}

// Metrics are the numeric diagnostics of an extraction.
type Metrics struct {
	TotalItems       int         `json:"totalItems"`
	TotalLines       int         `json:"totalLines"`
	Angles           AngleCounts `json:"angles"`
	JitterPxP95      float64     `json:"jitterPxP95"`      // rounded to 2 decimals
	MedianItemHeight float64     `json:"medianItemHeight"` // rounded to 2 decimals
	MedianItemStrLen float64     `json:"medianItemStrLen"`
}

// Result is the outcome of extracting one page.
type Result struct {
	Page      int     `json:"page"`
	PageCount int     `json:"pageCount"`
	Text      string  `json:"text"`
	Flags     Flags   `json:"flags"`
	Metrics   Metrics `json:"metrics"`
}

// HasMore reports whether pages follow the extracted one.
func (r *Result) HasMore() bool {
	return r.Page < r.PageCount
}
