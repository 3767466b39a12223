// Package money normalizes user-supplied amounts and renders them for chat replies.
package money

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Glyph is the single display currency supported by the bot.
const Glyph = "₹"

var (
	exactAmount    = regexp.MustCompile(`^(\d+(\.\d+)?)$`)
	embeddedAmount = regexp.MustCompile(`(\d+(\.\d+)?)`)
)

// Parse extracts an amount from strings like "50000", "50,000" or "₹50,000".
// It reports false when the input contains no numeric substring.
func Parse(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, Glyph, "")
	s = strings.ReplaceAll(s, ",", "")

	if m := exactAmount.FindStringSubmatch(s); m != nil {
		return mustDecimal(m[1])
	}
	// fallback: first number inside
	if m := embeddedAmount.FindStringSubmatch(s); m != nil {
		return mustDecimal(m[1])
	}
	return decimal.Zero, false
}

func mustDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Format renders an amount as the glyph followed by the thousands-grouped
// integer part, e.g. Format(50000) == "₹50,000".
func Format(d decimal.Decimal) string {
	return Glyph + group(d.IntPart())
}

// FormatFloat renders a raw float the same way as Format. Non-finite values
// fall back to an ungrouped rendition instead of panicking.
func FormatFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Glyph + fmt.Sprintf("%v", x)
	}
	return Glyph + group(int64(x))
}

// group inserts thousands separators into the decimal rendition of n.
func group(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
