package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount inserts thousands separators into the integer part of s,
// e.g. "1234567.5" -> "1,234,567.5". Non-numeric input yields "".
func FormatAmount(s string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	str := d.String()
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(str, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		return sign + b.String() + "." + fracPart
	}
	return sign + b.String()
}

// Initials returns the upper-cased first letters of the first two words of name.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) > 2 {
		words = words[:2]
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteRune([]rune(w)[0])
	}
	return strings.ToUpper(b.String())
}
