package domain

import "strings"

// PostalCodeDigits is the length of a complete postal code.
const PostalCodeDigits = 8

// NormalizePostalCode drops every non-digit from raw and reports whether the
// result is eligible for lookup (exactly PostalCodeDigits digits).
func NormalizePostalCode(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	code := b.String()
	return code, len(code) == PostalCodeDigits
}
