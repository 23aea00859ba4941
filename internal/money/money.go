// Package money implements fixed-point currency arithmetic for bill totals.
//
// Amounts are stored as int64 minor units (cents). Accumulation is exact;
// rounding happens only when the service tax is derived, using half-up
// rounding to a whole cent.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ErrInvalidAmount is returned when a decimal string cannot be parsed into cents.
var ErrInvalidAmount = errors.New("money: invalid amount")

// serviceTaxBps is the fixed 10% service tax expressed in basis points.
const serviceTaxBps = 1000

// Accumulate adds an item value to a running total without rounding.
func Accumulate(total, itemValue Money) Money {
	return total + itemValue
}

// ServiceTax returns 10% of base, rounded half-up to a whole cent.
func ServiceTax(base Money) Money {
	if base <= 0 {
		return 0
	}
	raw := base * serviceTaxBps
	tax := raw / 10000
	if raw%10000 >= 5000 {
		tax++
	}
	return tax
}

// SumRounded adds two cent-exact amounts. With int64 minor units the sum is
// already exact to two decimal places; the function exists as the documented
// pairing point of base and tax.
func SumRounded(a, b Money) Money {
	return a + b
}

// Parse converts a decimal string such as "33.33" into cents. It accepts up
// to two fractional digits and rejects negative, signed, and malformed input.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if hasFrac && (fracPart == "" || len(fracPart) > 2) {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	var frac int64
	switch len(fracPart) {
	case 1:
		frac = int64(fracPart[0]-'0') * 10
	case 2:
		frac = int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
	}
	// units*100+frac must stay within int64; checking against the exact
	// headroom keeps the boundary value representable while rejecting wrap.
	if units > (math.MaxInt64-frac)/100 {
		return 0, ErrInvalidAmount
	}
	return units*100 + frac, nil
}

// Format renders cents as a decimal string with two fractional digits.
func Format(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}
