package util

import (
	"strings"
	"unicode"
)

const defaultCountryCode = "+91"

// NormalizePhone strips formatting and prefixes bare 10 digit numbers with
// the default country code.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range phone {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if len(cleaned) == 10 && !strings.HasPrefix(cleaned, "+") {
		return defaultCountryCode + cleaned
	}
	return cleaned
}
