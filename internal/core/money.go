// Package core holds the calendar and money primitives shared by the
// scheduler, the stores and the HTTP layer.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var centsScale = decimal.New(100, 0)

// ParseAmountToCents converts a decimal amount string to positive cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Anything past
// the second decimal place is rounded half-up. Zero and negative amounts are
// rejected; obligations always charge a positive amount.
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(centsScale).Round(0)
	if !cents.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a plain decimal string (e.g. 1234 -> "12.34"),
// the format used in spreadsheet cells and API payloads.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
