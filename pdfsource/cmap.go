package pdfsource

import (
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
)

// cmapEncoding decodes character codes through a /ToUnicode CMap.
// ledongthuc/pdf only applies ToUnicode to Identity-H fonts and keeps its
// parser unexported, so vertical CMaps are read here.
type cmapEncoding struct {
	codeLen int // bytes per character code
	chars   map[int]string
	ranges  []bfRange
}

type bfRange struct {
	lo, hi int
	base   []byte   // UTF-16BE of lo, incremented for later codes
	list   []string // explicit destinations, one per code
}

const replacementChar = "\uFFFD"

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func decodeUTF16(b []byte) string {
	out, err := utf16be.NewDecoder().Bytes(b)
	if err != nil {
		return replacementChar
	}
	return string(out)
}

func codeOf(b []byte) int {
	n := 0
	for _, c := range b {
		n = n<<8 | int(c)
	}
	return n
}

// readToUnicode reads a ToUnicode stream. It returns nil when the stream
// cannot be read or holds no mapping.
func readToUnicode(strm pdf.Value, codeLen int) *cmapEncoding {
	rc := strm.Reader()
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil
	}
	return parseToUnicode(data, codeLen)
}

// parseToUnicode extracts the bfchar and bfrange sections of a CMap program.
func parseToUnicode(data []byte, codeLen int) *cmapEncoding {
	m := &cmapEncoding{codeLen: codeLen, chars: map[int]string{}}
	toks := cmapTokens(data)
	var section string
	for i := 0; i < len(toks); {
		tok := toks[i]
		if tok.kind == tokKeyword {
			switch tok.text {
			case "beginbfchar", "beginbfrange":
				section = tok.text
			case "endbfchar", "endbfrange":
				section = ""
			}
			i++
			continue
		}
		switch section {
		case "beginbfchar":
			if i+1 < len(toks) && tok.kind == tokHex && toks[i+1].kind == tokHex {
				m.chars[codeOf([]byte(tok.text))] = decodeUTF16([]byte(toks[i+1].text))
				i += 2
				continue
			}
		case "beginbfrange":
			if i+2 < len(toks) && tok.kind == tokHex && toks[i+1].kind == tokHex {
				r := bfRange{lo: codeOf([]byte(tok.text)), hi: codeOf([]byte(toks[i+1].text))}
				dst := toks[i+2]
				switch dst.kind {
				case tokHex:
					r.base = []byte(dst.text)
					i += 3
				case tokArrayStart:
					j := i + 3
					for ; j < len(toks) && toks[j].kind != tokArrayEnd; j++ {
						if toks[j].kind == tokHex {
							r.list = append(r.list, decodeUTF16([]byte(toks[j].text)))
						}
					}
					i = j + 1
				default:
					i += 3
					continue
				}
				m.ranges = append(m.ranges, r)
				continue
			}
		}
		i++
	}
	if len(m.chars) == 0 && len(m.ranges) == 0 {
		return nil
	}
	if m.codeLen <= 0 {
		m.codeLen = 1
	}
	return m
}

func (m *cmapEncoding) lookup(code int) string {
	if s, ok := m.chars[code]; ok {
		return s
	}
	for _, r := range m.ranges {
		if code < r.lo || code > r.hi {
			continue
		}
		off := code - r.lo
		if r.list != nil {
			if off < len(r.list) {
				return r.list[off]
			}
			return replacementChar
		}
		dst := append([]byte(nil), r.base...)
		// Carry the offset into the trailing bytes of the destination.
		for k := len(dst) - 1; k >= 0 && off > 0; k-- {
			sum := int(dst[k]) + off
			dst[k] = byte(sum)
			off = sum >> 8
		}
		return decodeUTF16(dst)
	}
	return replacementChar
}

func (m *cmapEncoding) Decode(raw string) string {
	var b strings.Builder
	for i := 0; i+m.codeLen <= len(raw); i += m.codeLen {
		b.WriteString(m.lookup(codeOf([]byte(raw[i : i+m.codeLen]))))
	}
	return b.String()
}

type tokKind int

const (
	tokKeyword tokKind = iota
	tokHex
	tokString
	tokName
	tokArrayStart
	tokArrayEnd
	tokDict
)

type cmapToken struct {
	kind tokKind
	text string // decoded bytes for hex and literal strings
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isSpace(c byte) bool {
	return strings.IndexByte(" \t\r\n\f\x00", c) >= 0
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// cmapTokens splits CMap program text into the tokens readToUnicode needs.
func cmapTokens(data []byte) []cmapToken {
	var toks []cmapToken
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '<' && i+1 < len(data) && data[i+1] == '<', c == '>' && i+1 < len(data) && data[i+1] == '>':
			toks = append(toks, cmapToken{kind: tokDict})
			i += 2
		case c == '<':
			var digits []byte
			for i++; i < len(data) && data[i] != '>'; i++ {
				if v, ok := unhex(data[i]); ok {
					digits = append(digits, v)
				}
			}
			i++
			if len(digits)%2 == 1 {
				digits = append(digits, 0)
			}
			b := make([]byte, len(digits)/2)
			for k := range b {
				b[k] = digits[2*k]<<4 | digits[2*k+1]
			}
			toks = append(toks, cmapToken{kind: tokHex, text: string(b)})
		case c == '(':
			var b []byte
			depth := 1
			for i++; i < len(data) && depth > 0; i++ {
				switch data[i] {
				case '\\':
					if i+1 < len(data) {
						i++
						b = append(b, data[i])
					}
					continue
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						continue
					}
				}
				b = append(b, data[i])
			}
			toks = append(toks, cmapToken{kind: tokString, text: string(b)})
		case c == '[':
			toks = append(toks, cmapToken{kind: tokArrayStart})
			i++
		case c == ']':
			toks = append(toks, cmapToken{kind: tokArrayEnd})
			i++
		default:
			start := i
			if c == '/' {
				i++
			}
			for i < len(data) && !isSpace(data[i]) && !isDelim(data[i]) {
				i++
			}
			if i == start {
				i++ // stray delimiter such as '{'
				continue
			}
			kind := tokKeyword
			if c == '/' {
				kind = tokName
			}
			toks = append(toks, cmapToken{kind: kind, text: string(data[start:i])})
		}
	}
	return toks
}
