// Package template renders instruction/task text. Two placeholder styles
// coexist: flat {key} brace substitution against a string replacement map,
// and {{a.b.c}} dotted-path substitution against a nested context. Both
// leave unresolved placeholders in place as visible breadcrumbs instead of
// erroring or blanking them.
package template

import (
	"math"
	"strconv"
	"strings"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// NotAvailable is the display form of a missing or non-finite number.
const NotAvailable = "N/A"

// FormatNumber renders a value rounded half-up to the given decimal count,
// with trailing zeros and a dangling decimal point stripped. NaN and
// infinities render as "N/A".
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	if decimals < 0 {
		decimals = 0
	}
	pow := math.Pow(10, float64(decimals))
	rounded := math.Floor(v*pow+0.5) / pow

	s := strconv.FormatFloat(rounded, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// FormatRange renders a range as "low-high", collapsing degenerate ranges
// to a single number.
func FormatRange(r domain.Range, decimals int) string {
	low := FormatNumber(r.Low, decimals)
	high := FormatNumber(r.High, decimals)
	if low == high {
		return low
	}
	return low + "-" + high
}

// FormatOptional renders a possibly-absent number; nil means "N/A".
func FormatOptional(v *float64, decimals int) string {
	if v == nil {
		return NotAvailable
	}
	return FormatNumber(*v, decimals)
}
