package blockparser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLocaleNumber converts pt-BR formatted text ("1.234,50") to a decimal.
// Every "." is removed as a thousands separator and "," becomes the decimal
// point. It never fails loudly: ok is false when the text is not a number.
func ParseLocaleNumber(text string) (decimal.Decimal, bool) {
	normalized := strings.TrimSpace(text)
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	if normalized == "" {
		return decimal.Zero, false
	}

	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
