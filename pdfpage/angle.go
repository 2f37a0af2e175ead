package pdfpage

import "math"

// Angle is the rotation bucket of a text item.
type Angle int

const (
	Angle0 Angle = iota
	Angle90
	Angle180
	Angle270
	AngleOther
)

func (a Angle) String() string {
	switch a {
	case Angle0:
		return "0"
	case Angle90:
		return "90"
	case Angle180:
		return "180"
	case Angle270:
		return "270"
	default:
		return "other"
	}
}

const (
	// AngleTolerance is the half-width, in degrees, of each orthogonal bucket.
	AngleTolerance = 0.5
	// SkewEpsilon is the off-diagonal magnitude above which an item is skewed.
	SkewEpsilon = 1e-3
)

// normalizeDeg maps any angle into [0, 360).
func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// nearDeg reports whether the shortest circular distance between a and b is
// within eps degrees.
func nearDeg(a, b, eps float64) bool {
	return math.Abs(normalizeDeg(a-b+540)-180) <= eps
}

// rotationDeg is the text-run rotation encoded by the first matrix row.
func rotationDeg(m Matrix) float64 {
	return normalizeDeg(math.Atan2(m[1], m[0]) * 180 / math.Pi)
}

// ClassifyAngle buckets the rotation of m.
func ClassifyAngle(m Matrix) Angle {
	deg := rotationDeg(m)
	switch {
	case nearDeg(deg, 0, AngleTolerance):
		return Angle0
	case nearDeg(deg, 90, AngleTolerance):
		return Angle90
	case nearDeg(deg, 180, AngleTolerance):
		return Angle180
	case nearDeg(deg, 270, AngleTolerance):
		return Angle270
	default:
		return AngleOther
	}
}

// IsSkewed reports a non-zero off-diagonal component. Pure 90° rotations are
// skewed by this definition too; the test is independent of the bucket.
func IsSkewed(m Matrix) bool {
	return math.Abs(m[1]) > SkewEpsilon || math.Abs(m[2]) > SkewEpsilon
}

// NormalizeRotation maps a declared page rotation into [0, 360).
func NormalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}
