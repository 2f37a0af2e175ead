// CLAUDE:SUMMARY Diagnostics summarizer — percentiles over raw counters and threshold-based quality flags.
package pdfpage

import "math"

// Thresholds calibrates the quality flags. The defaults have no derivation
// beyond observed behaviour; keep them unless a fixture says otherwise.
type Thresholds struct {
	// JitterFloor is the minimum p95 jitter, in page units, that counts as high.
	JitterFloor float64 `json:"jitter_floor" yaml:"jitter_floor"`
	// JitterHeightFactor scales the median item height into a jitter limit.
	JitterHeightFactor float64 `json:"jitter_height_factor" yaml:"jitter_height_factor"`
	// TinyItemsMin is the item count from which manyTinyItems may trigger.
	TinyItemsMin int `json:"tiny_items_min" yaml:"tiny_items_min"`
	// TinyItemStrLen is the median string length at or below which items are tiny.
	TinyItemStrLen float64 `json:"tiny_item_str_len" yaml:"tiny_item_str_len"`
	// SuspiciousAngleShare is the fraction of off-axis items above which the
	// page is suspicious.
	SuspiciousAngleShare float64 `json:"suspicious_angle_share" yaml:"suspicious_angle_share"`
}

// DefaultThresholds returns the standard calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		JitterFloor:          6,
		JitterHeightFactor:   0.75,
		TinyItemsMin:         400,
		TinyItemStrLen:       2,
		SuspiciousAngleShare: 0.02,
	}
}

// withDefaults fills unset fields from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.JitterFloor <= 0 {
		t.JitterFloor = d.JitterFloor
	}
	if t.JitterHeightFactor <= 0 {
		t.JitterHeightFactor = d.JitterHeightFactor
	}
	if t.TinyItemsMin <= 0 {
		t.TinyItemsMin = d.TinyItemsMin
	}
	if t.TinyItemStrLen <= 0 {
		t.TinyItemStrLen = d.TinyItemStrLen
	}
	if t.SuspiciousAngleShare <= 0 {
		t.SuspiciousAngleShare = d.SuspiciousAngleShare
	}
	return t
}

// Summary holds the unrounded statistics derived from Counters.
type Summary struct {
	HeightsMedian    float64
	JitterP95        float64
	MedianItemStrLen float64
}

// Summarize computes the statistics of c.
func Summarize(c Counters) Summary {
	return Summary{
		HeightsMedian:    Median(c.Heights),
		JitterP95:        Percentile(c.Jitter, 95),
		MedianItemStrLen: Median(c.StrLens),
	}
}

// Flags derives the quality flags from counters, their summary and the
// declared page rotation.
func (t Thresholds) Flags(c Counters, s Summary, rotation int) Flags {
	a := c.Angles
	var otherShare float64
	if total := a.Total(); total > 0 {
		otherShare = float64(a.Other) / float64(total)
	}
	return Flags{
		PageRotated:                 NormalizeRotation(rotation) != 0,
		RotatedTextDetected:         a.Deg90+a.Deg270+a.Other > 0,
		NonOrthogonalAnglesDetected: a.Other > 0,
		SkewDetected:                c.SkewCount > 0,
		VerticalTextDetected:        c.VerticalCount > 0,
		HighLineJitter:              s.JitterP95 > math.Max(t.JitterFloor, s.HeightsMedian*t.JitterHeightFactor),
		ManyTinyItems:               c.TotalItems >= t.TinyItemsMin && s.MedianItemStrLen <= t.TinyItemStrLen,
		SuspiciousAnglesShare:       otherShare > t.SuspiciousAngleShare,
	}
}

// Metrics packages counters and summary for output. Jitter and height are
// rounded to two decimals.
func (s Summary) Metrics(c Counters, totalLines int) Metrics {
	return Metrics{
		TotalItems:       c.TotalItems,
		TotalLines:       totalLines,
		Angles:           c.Angles,
		JitterPxP95:      round2(s.JitterP95),
		MedianItemHeight: round2(s.HeightsMedian),
		MedianItemStrLen: s.MedianItemStrLen,
	}
}
