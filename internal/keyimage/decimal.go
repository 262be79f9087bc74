package keyimage

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// decimalPattern is the grammar from §4.A: an optional sign, then either a
// mandatory integer part with an optional fraction of at most 4 digits, or
// a leading-dot fraction with no integer part. Surrounding whitespace is
// tolerated.
var decimalPattern = regexp.MustCompile(`^\s*([+-]?)(?:(\d+)(?:\.(\d{0,4}))?|\.(\d{1,4}))\s*$`)

// decimalScale is the fixed number of fractional digits a decimal column is
// scaled to before being stored as a signed 64-bit integer.
const decimalScale = 4

// AppendDecimal appends an 8-byte fixed-point decimal: sign × (integral ×
// 10^4 + fraction), the fraction right-padded with zeros to exactly 4
// digits (§4.A). A string that does not match the decimal grammar, or whose
// scaled value overflows int64, is malformed.
func (img *Image) AppendDecimal(s string, isNull bool) {
	dst := img.take(8)
	if isNull {
		return
	}
	m := decimalPattern.FindStringSubmatch(s)
	if m == nil {
		img.invalidate()
		return
	}
	sign, intPart, frac := m[1], m[2], m[3]
	if intPart == "" && m[4] != "" {
		frac = m[4]
	}
	if intPart == "" {
		intPart = "0"
	}
	frac = frac + strings.Repeat("0", decimalScale-len(frac))

	normalized := sign + intPart + "." + frac
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		img.invalidate()
		return
	}
	scaled := d.Shift(decimalScale)
	if scaled.GreaterThan(maxInt64Decimal) || scaled.LessThan(minInt64Decimal) {
		img.invalidate()
		return
	}
	appendLE(dst, scaled.IntPart())
}

var (
	maxInt64Decimal = decimal.NewFromInt(1<<63 - 1)
	minInt64Decimal = decimal.NewFromInt(-1 << 63)
)
