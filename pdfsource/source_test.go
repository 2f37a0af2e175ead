package pdfsource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/hazyhaar/aitools/pdfpage"
)

// --- PDF test helpers ---

type testPage struct {
	content string
	rotate  int
	form    string // content of a Form XObject exposed as /Fm1
}

func streamObj(dict, content string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content)
}

// buildPDF creates a valid PDF with proper xref offsets. Object 3 is a
// Helvetica font exposed to every page as /F1.
func buildPDF(pages ...testPage) []byte {
	n := len(pages)
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	next := 4 + 2*n
	var forms []string
	for i, p := range pages {
		xobj := ""
		if p.form != "" {
			xobj = fmt.Sprintf(" /XObject << /Fm1 %d 0 R >>", next)
			next++
			forms = append(forms, streamObj("/Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>", p.form))
		}
		rot := ""
		if p.rotate != 0 {
			rot = fmt.Sprintf(" /Rotate %d", p.rotate)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]%s /Contents %d 0 R /Resources << /Font << /F1 3 0 R >>%s >> >>", rot, 5+2*i, xobj),
			streamObj("", p.content),
		)
	}
	objs = append(objs, forms...)
	return assemblePDF(objs)
}

// assemblePDF numbers objs from 1, writes the xref table and trailer.
// Object 1 must be the catalog.
func assemblePDF(objs []string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return []byte(b.String())
}

func textPage(body string) testPage {
	return testPage{content: "BT\n/F1 12 Tf\n" + body + "\nET"}
}

func extract(t *testing.T, data []byte, page int) *pdfpage.Result {
	t.Helper()
	ex := pdfpage.New(pdfpage.Config{Opener: NewOpener(Config{})})
	res, err := ex.Extract(context.Background(), data, page)
	if err != nil {
		t.Fatalf("extract page %d: %v", page, err)
	}
	return res
}

func openDoc(t *testing.T, data []byte) pdfpage.Document {
	t.Helper()
	doc, err := NewOpener(Config{}).Open(context.Background(), data)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return doc
}

// --- tests ---

func TestExtract_SinglePage(t *testing.T) {
	// WHAT: A one-page PDF with a single Tj yields its text and page count 1.
	// WHY: End-to-end path through pdfcpu validation and content decoding.
	data := buildPDF(textPage("72 720 Td\n(Hello PDF Tool Sample) Tj"))
	res := extract(t, data, 1)
	if res.Text != "Hello PDF Tool Sample" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.PageCount != 1 || res.HasMore() {
		t.Fatalf("page count = %d, hasMore = %v", res.PageCount, res.HasMore())
	}
	if res.Metrics.TotalItems != 1 || res.Metrics.TotalLines != 1 {
		t.Fatalf("metrics = %+v", res.Metrics)
	}
	if res.Metrics.MedianItemHeight != 12 {
		t.Fatalf("median height = %v, want font size 12", res.Metrics.MedianItemHeight)
	}
	if res.Flags != (pdfpage.Flags{}) {
		t.Fatalf("flags = %+v, want none", res.Flags)
	}
}

func TestExtract_PageOutOfRange(t *testing.T) {
	data := buildPDF(textPage("(one) Tj"), textPage("(two) Tj"))
	ex := pdfpage.New(pdfpage.Config{Opener: NewOpener(Config{})})
	for _, page := range []int{0, 3, 999} {
		_, err := ex.Extract(context.Background(), data, page)
		if !errors.Is(err, pdfpage.ErrPageOutOfRange) {
			t.Fatalf("page %d: err = %v, want ErrPageOutOfRange", page, err)
		}
		if !strings.Contains(err.Error(), "1-2") {
			t.Fatalf("page %d: message %q lacks valid range", page, err)
		}
	}
}

func TestExtract_MultiPage(t *testing.T) {
	data := buildPDF(
		textPage("72 720 Td (first page) Tj"),
		textPage("72 720 Td (second page) Tj"),
		textPage("72 720 Td (third page) Tj"),
	)
	res := extract(t, data, 2)
	if res.Text != "second page" || res.PageCount != 3 || !res.HasMore() {
		t.Fatalf("result = %+v", res)
	}
}

func TestOpen_Garbage(t *testing.T) {
	// WHAT: Non-PDF bytes fail with ErrDecode.
	// WHY: Callers distinguish bad input from bad page numbers.
	for name, data := range map[string][]byte{
		"garbage":   []byte("this is not a pdf at all"),
		"empty":     nil,
		"truncated": buildPDF(textPage("(x) Tj"))[:40],
	} {
		_, err := NewOpener(Config{}).Open(context.Background(), data)
		if !errors.Is(err, pdfpage.ErrDecode) {
			t.Errorf("%s: err = %v, want ErrDecode", name, err)
		}
	}
}

func TestPage_Rotation(t *testing.T) {
	// WHAT: The declared /Rotate reaches the extractor and raises pageRotated.
	data := buildPDF(testPage{content: "BT /F1 12 Tf 72 720 Td (sideways) Tj ET", rotate: 90})
	doc := openDoc(t, data)
	defer doc.Destroy()
	p, err := doc.Page(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Rotation != 90 {
		t.Fatalf("rotation = %d, want 90", p.Rotation)
	}
	if res := extract(t, data, 1); !res.Flags.PageRotated {
		t.Fatal("pageRotated = false")
	}
}

func TestExtract_TwoLines(t *testing.T) {
	data := buildPDF(textPage("72 700 Td (Second line) Tj\n0 20 Td (First line) Tj"))
	res := extract(t, data, 1)
	if res.Text != "First line\nSecond line" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtract_TextLeading(t *testing.T) {
	data := buildPDF(textPage("14 TL 72 720 Td (alpha) Tj T* (beta) Tj (gamma) '"))
	res := extract(t, data, 1)
	if res.Text != "alpha\nbeta\ngamma" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtract_KerningSpaces(t *testing.T) {
	// WHAT: Large negative TJ adjustments become spaces; small ones do not.
	// WHY: Producers encode word gaps as kerning instead of space glyphs.
	data := buildPDF(textPage("72 720 Td [(Hello) -250 (World)] TJ\n0 -20 Td [(Ker) -30 (ning)] TJ"))
	res := extract(t, data, 1)
	if res.Text != "Hello World\nKerning" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Metrics.TotalItems != 2 {
		t.Fatalf("items = %d, want one per TJ", res.Metrics.TotalItems)
	}
}

func TestPage_ItemPositions(t *testing.T) {
	// WHAT: Items carry page-space origins after cm and Td, and advance by
	// glyph widths.
	data := buildPDF(testPage{content: "q 2 0 0 2 0 0 cm BT /F1 10 Tf 10 10 Td (AB) Tj (C) Tj ET Q"})
	doc := openDoc(t, data)
	defer doc.Destroy()
	p, err := doc.Page(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d", len(p.Items))
	}
	first := p.Items[0].Transform
	if first[4] != 20 || first[5] != 20 || p.Items[0].Height != 20 {
		t.Fatalf("first item transform %v height %v", first, p.Items[0].Height)
	}
	if p.Items[1].Transform[4] <= first[4] {
		t.Fatalf("second item did not advance: %v", p.Items[1].Transform)
	}
	if p.Items[0].FontName != "F1" {
		t.Fatalf("font name = %q", p.Items[0].FontName)
	}
	if _, ok := p.Styles["F1"]; !ok {
		t.Fatal("font style not reported")
	}
}

func TestPage_RotatedText(t *testing.T) {
	data := buildPDF(textPage("0 1 -1 0 300 400 Tm (up) Tj"))
	doc := openDoc(t, data)
	defer doc.Destroy()
	p, err := doc.Page(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := pdfpage.ClassifyAngle(p.Items[0].Transform); got != pdfpage.Angle90 {
		t.Fatalf("angle = %v, want 90", got)
	}
	if h := p.Items[0].Height; math.Abs(h-12) > 1e-9 {
		t.Fatalf("height = %v, want 12", h)
	}
}

func TestPage_FormXObject(t *testing.T) {
	// WHAT: Text painted through a Form XObject is extracted.
	data := buildPDF(testPage{
		content: "BT /F1 12 Tf 72 720 Td (page text) Tj ET\nq 1 0 0 1 0 -100 cm /Fm1 Do Q",
		form:    "BT /F1 12 Tf 72 720 Td (form text) Tj ET",
	})
	res := extract(t, data, 1)
	if res.Text != "page text\nform text" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestDocument_Lifecycle(t *testing.T) {
	doc := openDoc(t, buildPDF(textPage("(x) Tj")))
	if doc.PageCount() != 1 {
		t.Fatalf("page count = %d", doc.PageCount())
	}
	if _, err := doc.Page(context.Background(), 2); !errors.Is(err, pdfpage.ErrPageOutOfRange) {
		t.Fatalf("page 2 err = %v", err)
	}
	if err := doc.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if err := doc.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err := doc.Destroy(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second destroy err = %v, want ErrClosed", err)
	}
	if _, err := doc.Page(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("page after destroy err = %v", err)
	}
}

func TestMul(t *testing.T) {
	scale := pdfpage.Matrix{2, 0, 0, 2, 0, 0}
	move := translate(10, 5)
	// Translate first, then scale: the offset is scaled too.
	if got := mul(move, scale); got != (pdfpage.Matrix{2, 0, 0, 2, 20, 10}) {
		t.Fatalf("mul = %v", got)
	}
	if got := mul(pdfpage.Identity, move); got != move {
		t.Fatalf("identity mul = %v", got)
	}
}

// Objects 5 to 8 of a Type0 font test file: the composite font, its CID
// font, a ToUnicode CMap mapping 0001->A, 0002->B and 0003..0005->C..E, and
// the font descriptor.
func cidFontObjs(encoding string) []string {
	cmap := `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Test-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0001> <0041>
<0002> <0042>
endbfchar
1 beginbfrange
<0003> <0005> <0043>
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`
	return []string{
		fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /TestCID /Encoding /%s /DescendantFonts [6 0 R] /ToUnicode 7 0 R >>", encoding),
		"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /TestCID /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor 8 0 R /DW 1000 >>",
		streamObj("", cmap),
		"<< /Type /FontDescriptor /FontName /TestCID /Flags 4 /FontBBox [0 -200 1000 800] /ItalicAngle 0 /Ascent 800 /Descent -200 /CapHeight 700 /StemV 80 >>",
	}
}

// cidFontPDF shows content on one page whose /F1 is the Type0 font.
func cidFontPDF(encoding, content string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		streamObj("", content),
	}
	return assemblePDF(append(objs, cidFontObjs(encoding)...))
}

func TestPage_CompositeFontToUnicode(t *testing.T) {
	// WHAT: Two-byte codes of a Type0 font decode through its ToUnicode CMap
	// for both horizontal and vertical encodings.
	// WHY: Vertical CJK pages must yield text, not raw character codes.
	content := "BT /F1 10 Tf 72 720 Td <000100020004> Tj ET"
	tests := []struct {
		encoding string
		vertical bool
	}{
		{"Identity-H", false},
		{"Identity-V", true},
	}
	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			data := cidFontPDF(tt.encoding, content)
			doc := openDoc(t, data)
			defer doc.Destroy()
			p, err := doc.Page(context.Background(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(p.Items) != 1 || p.Items[0].Text != "ABD" {
				t.Fatalf("items = %+v, want text ABD", p.Items)
			}
			if got := p.Styles["F1"].Vertical; got != tt.vertical {
				t.Fatalf("vertical = %v, want %v", got, tt.vertical)
			}
			if res := extract(t, data, 1); res.Flags.VerticalTextDetected != tt.vertical || res.Text != "ABD" {
				t.Fatalf("result = %+v", res)
			}
		})
	}
}

func TestParseToUnicode_RangeArrayAndUnmapped(t *testing.T) {
	// WHAT: bfrange arrays map code by code; unmapped codes become U+FFFD.
	m := parseToUnicode([]byte(`% comment
1 beginbfrange
<10> <12> [<0061> <0062> <0063>]
endbfrange
1 beginbfchar
<20> <00E9>
endbfchar`), 1)
	if m == nil {
		t.Fatal("no mapping parsed")
	}
	if got := m.Decode("\x10\x12\x20\x7f"); got != "ac\u00e9\uFFFD" {
		t.Fatalf("decode = %q", got)
	}
	if parseToUnicode([]byte("begincmap endcmap"), 2) != nil {
		t.Fatal("empty CMap should yield no encoding")
	}
}

func TestPage_FormInheritsTextState(t *testing.T) {
	// WHAT: A form without its own Tf paints with the font and size in
	// effect at Do.
	data := buildPDF(testPage{
		content: "BT /F1 12 Tf ET\n/Fm1 Do",
		form:    "BT 72 620 Td (inherited) Tj ET",
	})
	doc := openDoc(t, data)
	defer doc.Destroy()
	p, err := doc.Page(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 1 || p.Items[0].Text != "inherited" {
		t.Fatalf("items = %+v", p.Items)
	}
	if h := p.Items[0].Height; h != 12 {
		t.Fatalf("height = %v, want inherited size 12", h)
	}
	if p.Items[0].FontName != "F1" {
		t.Fatalf("font = %q, want the page font", p.Items[0].FontName)
	}
}

func TestPage_FormFontStylesScoped(t *testing.T) {
	// WHAT: A form's /F1 and the page's /F1 are reported as distinct styles.
	// WHY: Resource names are local to their resource dictionary.
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 9 0 R >> /XObject << /Fm1 10 0 R >> >> >>",
		streamObj("", "BT /F1 12 Tf 72 720 Td (page) Tj ET\n/Fm1 Do"),
	}
	objs = append(objs, cidFontObjs("Identity-V")...)
	objs = append(objs,
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		streamObj("/Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >>",
			"BT /F1 10 Tf 300 400 Td <0001> Tj ET"),
	)
	doc := openDoc(t, assemblePDF(objs))
	defer doc.Destroy()
	p, err := doc.Page(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %+v", p.Items)
	}
	page, form := p.Items[0], p.Items[1]
	if page.FontName == form.FontName {
		t.Fatalf("both items use style %q", page.FontName)
	}
	if p.Styles[page.FontName].Vertical || !p.Styles[form.FontName].Vertical {
		t.Fatalf("styles = %+v (page %q, form %q)", p.Styles, page.FontName, form.FontName)
	}
	if form.Text != "A" {
		t.Fatalf("form text = %q", form.Text)
	}
}
