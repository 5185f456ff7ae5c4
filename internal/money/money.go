// Package money handles rupiah amounts. Amounts are int64 whole rupiah; the
// currency has no minor unit in everyday use, so fractions are rejected.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const symbol = "Rp"

// MaxAmount is the largest amount, in either direction, a single parsed value
// or transaction may carry: Rp 1 trillion.
const MaxAmount int64 = 1_000_000_000_000

var (
	ErrFraction   = errors.New("amount has a fractional part")
	ErrOutOfRange = errors.New("amount out of range")
)

var maxAmount = decimal.NewFromInt(MaxAmount)

// Parse reads an Indonesian-formatted amount into whole rupiah.
// Format examples: "50.000" -> 50000, "Rp 1.250.000" -> 1250000, "12.500,00" -> 12500.
func Parse(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, symbol)
	clean = strings.TrimPrefix(clean, strings.ToLower(symbol))
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("parsing amount %q: %w", s, ErrFraction)
	}

	if d.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("parsing amount %q: %w", s, ErrOutOfRange)
	}

	return d.IntPart(), nil
}

// Add returns a+b, or false when the sum does not fit in an int64.
func Add(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}

	if b < 0 && a < math.MinInt64-b {
		return 0, false
	}

	return a + b, true
}

// Format renders an amount with id-ID thousands separators, e.g. "Rp 50.000"
// or "-Rp 5.000".
func Format(amount int64) string {
	p := message.NewPrinter(language.Indonesian)

	if amount < 0 {
		// Negating math.MinInt64 would overflow.
		magnitude := uint64(-(amount + 1)) + 1
		return "-" + symbol + " " + p.Sprintf("%d", magnitude)
	}

	return symbol + " " + p.Sprintf("%d", amount)
}

// FormatSigned renders a signed delta with an explicit sign, e.g. "+Rp 50.000" or "-Rp 20.000".
func FormatSigned(delta int64) string {
	if delta < 0 {
		return Format(delta)
	}

	return "+" + Format(delta)
}
