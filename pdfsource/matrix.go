package pdfsource

import (
	"math"

	"github.com/hazyhaar/aitools/pdfpage"
)

// mul returns a×b in the row-vector convention of PDF content streams:
// applying the result equals applying a first, then b.
func mul(a, b pdfpage.Matrix) pdfpage.Matrix {
	return pdfpage.Matrix{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
		a[4]*b[0] + a[5]*b[2] + b[4],
		a[4]*b[1] + a[5]*b[3] + b[5],
	}
}

func translate(tx, ty float64) pdfpage.Matrix {
	return pdfpage.Matrix{1, 0, 0, 1, tx, ty}
}

// scaleY is the length of the transformed unit Y vector, the rendered glyph
// height for a unit font size.
func scaleY(m pdfpage.Matrix) float64 {
	return math.Hypot(m[2], m[3])
}
