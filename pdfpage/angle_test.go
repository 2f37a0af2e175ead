package pdfpage

import (
	"math"
	"testing"
)

func rotated(deg, size float64) Matrix {
	r := deg * math.Pi / 180
	return Matrix{size * math.Cos(r), size * math.Sin(r), -size * math.Sin(r), size * math.Cos(r), 0, 0}
}

func TestClassifyAngle(t *testing.T) {
	tests := []struct {
		deg  float64
		want Angle
	}{
		{0, Angle0},
		{0.4, Angle0},
		{359.7, Angle0},
		{-0.3, Angle0},
		{90, Angle90},
		{90.4, Angle90},
		{180, Angle180},
		{179.6, Angle180},
		{270, Angle270},
		{-90, Angle270},
		{45, AngleOther},
		{0.6, AngleOther},
		{135, AngleOther},
	}
	for _, tt := range tests {
		if got := ClassifyAngle(rotated(tt.deg, 12)); got != tt.want {
			t.Errorf("ClassifyAngle(%v°) = %v, want %v", tt.deg, got, tt.want)
		}
	}
}

func TestNearDeg_Wraparound(t *testing.T) {
	// WHAT: 359.8° and 0.1° are 0.3° apart across the 0/360 seam.
	// WHY: A linear difference would put them 359.7° apart.
	if !nearDeg(359.8, 0.1, 0.5) {
		t.Fatal("expected 359.8 near 0.1")
	}
	if nearDeg(359.0, 0.1, 0.5) {
		t.Fatal("359.0 should not be near 0.1")
	}
}

func TestIsSkewed(t *testing.T) {
	if IsSkewed(Matrix{12, 0, 0, 12, 0, 0}) {
		t.Error("axis-aligned matrix reported skewed")
	}
	if !IsSkewed(Matrix{12, 0, 0.5, 12, 0, 0}) {
		t.Error("shear in c not detected")
	}
	if !IsSkewed(rotated(90, 12)) {
		t.Error("rotation has off-diagonals and counts as skew")
	}
	if IsSkewed(Matrix{12, 0.0009, 0, 12, 0, 0}) {
		t.Error("off-diagonal below epsilon reported skewed")
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := map[int]int{0: 0, 90: 90, 360: 0, -90: 270, 450: 90, -360: 0, 720: 0}
	for in, want := range tests {
		if got := NormalizeRotation(in); got != want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAngle_String(t *testing.T) {
	if Angle270.String() != "270" || AngleOther.String() != "other" {
		t.Fatal("unexpected angle names")
	}
}
