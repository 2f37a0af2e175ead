// CLAUDE:SUMMARY Content stream interpreter — tracks graphics/text state and emits positioned text items.
package pdfsource

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hazyhaar/aitools/pdfpage"
)

// kernSpace is the TJ adjustment (thousandths of text space) below which a
// gap is rendered as a word break.
const kernSpace = -200

type textState struct {
	fontName string // resource name
	styleKey string // fontName qualified by the scope that declared it
	font     *font
	size     float64
	charSp   float64 // Tc
	wordSp   float64 // Tw
	scale    float64 // Tz / 100
	leading  float64 // TL
	rise     float64 // Ts
}

type gstate struct {
	ctm  pdfpage.Matrix
	text textState
}

// interpreter collects text items across the content of one page.
type interpreter struct {
	maxDepth int
	items    []pdfpage.TextItem
	styles   pdfpage.Styles
}

func newInterpreter(maxDepth int) *interpreter {
	return &interpreter{maxDepth: maxDepth, styles: pdfpage.Styles{}}
}

// scope is the state of one content sequence: the page content (all streams
// of a Contents array share it) or one Form XObject.
type scope struct {
	in        *interpreter
	resources pdf.Value
	fonts     map[string]*font
	depth     int
	prefix    string // style key prefix: "" for the page, "Fm1/" for a form

	gs      gstate
	saved   []gstate
	tm, tlm pdfpage.Matrix
}

// newScope starts a content sequence with the graphics state in effect where
// it is painted.
func (in *interpreter) newScope(resources pdf.Value, gs gstate, depth int, prefix string) *scope {
	return &scope{
		in:        in,
		resources: resources,
		fonts:     map[string]*font{},
		depth:     depth,
		prefix:    prefix,
		gs:        gs,
		tm:        pdfpage.Identity,
		tlm:       pdfpage.Identity,
	}
}

// font resolves a font resource of this scope and registers its style under
// the scope-qualified key, so equal resource names in different forms do not
// collide.
func (s *scope) font(name string) (*font, string) {
	key := s.prefix + name
	if f, ok := s.fonts[name]; ok {
		return f, key
	}
	f := loadFont(s.resources.Key("Font").Key(name))
	s.fonts[name] = f
	s.in.styles[key] = pdfpage.Style{Vertical: f.vertical}
	return f, key
}

// show emits one item for raw at the current text position and advances it.
func (s *scope) show(raw string) pdfpage.TextItem {
	ts := &s.gs.text
	if ts.font == nil {
		ts.font, ts.styleKey = s.font(ts.fontName)
	}
	trm := mul(mul(pdfpage.Matrix{ts.size * ts.scale, 0, 0, ts.size, 0, ts.rise}, s.tm), s.gs.ctm)
	it := pdfpage.TextItem{
		Transform: trm,
		Text:      ts.font.decode(raw),
		Height:    scaleY(trm),
		FontName:  ts.styleKey,
	}
	for _, code := range ts.font.codes(raw) {
		tx := ts.font.width(code)*ts.size + ts.charSp
		if code == spaceCode && !ts.font.twoByte {
			tx += ts.wordSp
		}
		s.tm = mul(translate(tx*ts.scale, 0), s.tm)
	}
	return it
}

// showArray renders a TJ operand as a single item positioned at its first
// string.
func (s *scope) showArray(arr pdf.Value) {
	ts := &s.gs.text
	var (
		text  strings.Builder
		first pdfpage.TextItem
		found bool
	)
	for i := 0; i < arr.Len(); i++ {
		el := arr.Index(i)
		switch el.Kind() {
		case pdf.String:
			it := s.show(el.RawString())
			if !found {
				first, found = it, true
			}
			text.WriteString(it.Text)
		case pdf.Integer, pdf.Real:
			adj := el.Float64()
			if adj < kernSpace && text.Len() > 0 {
				text.WriteByte(' ')
			}
			s.tm = mul(translate(-adj/1000*ts.size*ts.scale, 0), s.tm)
		}
	}
	if found {
		first.Text = text.String()
		s.in.items = append(s.in.items, first)
	}
}

func (s *scope) nextLine(tx, ty float64) {
	s.tlm = mul(translate(tx, ty), s.tlm)
	s.tm = s.tlm
}

// exec interprets one content stream within the scope.
func (s *scope) exec(strm pdf.Value) {
	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		num := func(i int) float64 {
			if i < len(args) {
				return args[i].Float64()
			}
			return 0
		}
		matrix := func() pdfpage.Matrix {
			return pdfpage.Matrix{num(0), num(1), num(2), num(3), num(4), num(5)}
		}

		switch op {
		case "q":
			s.saved = append(s.saved, s.gs)
		case "Q":
			if len(s.saved) > 0 {
				s.gs = s.saved[len(s.saved)-1]
				s.saved = s.saved[:len(s.saved)-1]
			}
		case "cm":
			if n == 6 {
				s.gs.ctm = mul(matrix(), s.gs.ctm)
			}
		case "BT":
			s.tm, s.tlm = pdfpage.Identity, pdfpage.Identity
		case "Tf":
			if n == 2 {
				s.gs.text.fontName = args[0].Name()
				s.gs.text.font, s.gs.text.styleKey = s.font(s.gs.text.fontName)
				s.gs.text.size = num(1)
			}
		case "Tc":
			s.gs.text.charSp = num(0)
		case "Tw":
			s.gs.text.wordSp = num(0)
		case "Tz":
			s.gs.text.scale = num(0) / 100
		case "TL":
			s.gs.text.leading = num(0)
		case "Ts":
			s.gs.text.rise = num(0)
		case "Td":
			s.nextLine(num(0), num(1))
		case "TD":
			s.gs.text.leading = -num(1)
			s.nextLine(num(0), num(1))
		case "Tm":
			if n == 6 {
				s.tlm = matrix()
				s.tm = s.tlm
			}
		case "T*":
			s.nextLine(0, -s.gs.text.leading)
		case "Tj":
			if n == 1 {
				s.in.items = append(s.in.items, s.show(args[0].RawString()))
			}
		case "'":
			s.nextLine(0, -s.gs.text.leading)
			if n == 1 {
				s.in.items = append(s.in.items, s.show(args[0].RawString()))
			}
		case "\"":
			if n == 3 {
				s.gs.text.wordSp = num(0)
				s.gs.text.charSp = num(1)
				s.nextLine(0, -s.gs.text.leading)
				s.in.items = append(s.in.items, s.show(args[2].RawString()))
			}
		case "TJ":
			if n == 1 {
				s.showArray(args[0])
			}
		case "Do":
			if n == 1 && s.depth < s.in.maxDepth {
				s.form(args[0].Name())
			}
		}
	})
}

// form interprets a Form XObject painted with Do.
func (s *scope) form(name string) {
	xobj := s.resources.Key("XObject").Key(name)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}
	gs := s.gs
	if m := xobj.Key("Matrix"); m.Kind() == pdf.Array && m.Len() == 6 {
		var fm pdfpage.Matrix
		for i := range fm {
			fm[i] = m.Index(i).Float64()
		}
		gs.ctm = mul(fm, gs.ctm)
	}
	res := xobj.Key("Resources")
	if res.IsNull() {
		res = s.resources
	}
	s.in.newScope(res, gs, s.depth+1, s.prefix+name+"/").exec(xobj)
}
