package entities

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// SpillageScale is the number of fractional digits a spillage coefficient may carry
const SpillageScale = 4

// MaxNameLength bounds component and product names (in runes)
const MaxNameLength = 255

var maxSpillage = decimal.NewFromInt(10)

// ValidateSpillage checks that a coefficient lies in [0, 10) with at most four fractional digits
func ValidateSpillage(spillage decimal.Decimal) error {
	if spillage.IsNegative() {
		return NewValidationError("component", 0, "spillage coefficient cannot be negative, got %s", spillage)
	}
	if spillage.GreaterThanOrEqual(maxSpillage) {
		return NewValidationError("component", 0, "spillage coefficient must be below 10, got %s", spillage)
	}
	if !spillage.Equal(spillage.Truncate(SpillageScale)) {
		return NewValidationError("component", 0, "spillage coefficient allows at most %d decimal places, got %s", SpillageScale, spillage)
	}
	return nil
}

// ParseSpillage parses a decimal string coefficient and validates it
func ParseSpillage(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, NewValidationError("component", 0, "invalid spillage coefficient %q", s)
	}
	if err := ValidateSpillage(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// WithSpillage returns qty × (1 + spillage) as an exact decimal
func WithSpillage(qty Quantity, spillage decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(qty)).Mul(decimal.NewFromInt(1).Add(spillage))
}

// CeilUnits rounds an exact requirement up to whole units.
// It reports false when the result does not fit a Quantity.
func CeilUnits(d decimal.Decimal) (Quantity, bool) {
	c := d.Ceil()
	if !c.BigInt().IsInt64() {
		return 0, false
	}
	return Quantity(c.IntPart()), true
}

// FloorDiv returns floor(stock / perUnit) for a positive perUnit.
// QuoRem with zero precision yields the exact truncated integer quotient.
func FloorDiv(stock Quantity, perUnit decimal.Decimal) Quantity {
	if stock <= 0 {
		return 0
	}
	q, _ := decimal.NewFromInt(int64(stock)).QuoRem(perUnit, 0)
	return Quantity(q.IntPart())
}

// NormalizeName trims and NFC-normalizes a display name so that visually
// identical names compare equal.
func NormalizeName(entity, name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" {
		return "", NewValidationError(entity, 0, "name cannot be empty")
	}
	if utf8.RuneCountInString(n) > MaxNameLength {
		return "", NewValidationError(entity, 0, "name cannot exceed %d characters", MaxNameLength)
	}
	return n, nil
}
