package pdfsource

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	defaultGlyphWidth = 500.0 // glyph space units, used when a font declares none
	spaceCode         = 32
)

// font is a resolved font resource with its decoder cached.
type font struct {
	v        pdf.Value
	enc      pdf.TextEncoding
	twoByte  bool
	vertical bool
	dw       float64 // default width for composite fonts
}

func loadFont(v pdf.Value) *font {
	f := &font{v: v, dw: defaultGlyphWidth}
	if v.IsNull() {
		f.enc = rawEncoding{}
		return f
	}
	f.enc = pdf.Font{V: v}.Encoder()
	if f.enc == nil {
		f.enc = rawEncoding{}
	}
	encName := v.Key("Encoding").Name()
	f.twoByte = v.Key("Subtype").Name() == "Type0"
	f.vertical = strings.HasSuffix(encName, "-V")
	// The reader applies ToUnicode to Identity-H only; other composite
	// encodings, vertical ones included, go through our own CMap reader.
	if f.twoByte && encName != "Identity-H" {
		if tu := v.Key("ToUnicode"); tu.Kind() == pdf.Stream {
			if m := readToUnicode(tu, 2); m != nil {
				f.enc = m
			}
		}
	}
	if f.twoByte {
		if dw := v.Key("DescendantFonts").Index(0).Key("DW"); dw.Kind() == pdf.Integer || dw.Kind() == pdf.Real {
			f.dw = dw.Float64()
		} else {
			f.dw = 1000
		}
	}
	return f
}

// codes splits a shown string into character codes.
func (f *font) codes(raw string) []int {
	if f.twoByte {
		out := make([]int, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			out = append(out, int(raw[i])<<8|int(raw[i+1]))
		}
		return out
	}
	out := make([]int, len(raw))
	for i := 0; i < len(raw); i++ {
		out[i] = int(raw[i])
	}
	return out
}

// width returns the advance of code in text space units per unit font size.
func (f *font) width(code int) float64 {
	if f.twoByte || f.v.IsNull() {
		return f.dw / 1000
	}
	w := pdf.Font{V: f.v}.Width(code)
	if w <= 0 {
		w = defaultGlyphWidth
	}
	return w / 1000
}

func (f *font) decode(raw string) string {
	return f.enc.Decode(raw)
}

// rawEncoding maps bytes to runes one to one. It stands in for fonts that are
// referenced but not declared.
type rawEncoding struct{}

func (rawEncoding) Decode(raw string) string {
	r := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		r[i] = rune(raw[i])
	}
	return string(r)
}
