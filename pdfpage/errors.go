package pdfpage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrPageOutOfRange is returned when the requested page is not an integer
	// in [1, pageCount].
	ErrPageOutOfRange = errors.New("pdfpage: page out of range")

	// ErrDecode is returned when document bytes or page content cannot be read.
	ErrDecode = errors.New("pdfpage: decode failed")

	// ErrInternal is returned when the document collaborator fails unexpectedly.
	ErrInternal = errors.New("pdfpage: internal error")
)

// ValidatePage checks that page lies in [1, pageCount].
func ValidatePage(page, pageCount int) error {
	if page < 1 || page > pageCount {
		return fmt.Errorf("%w: requested page %d, valid range is 1-%d", ErrPageOutOfRange, page, pageCount)
	}
	return nil
}

// PageNumber converts a loosely typed page number (JSON numbers decode to
// float64) into an int. Non-integers and non-finite values are out of range.
func PageNumber(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: requested page %s is not an integer",
			ErrPageOutOfRange, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: requested page %s", ErrPageOutOfRange, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return int(v), nil
}
