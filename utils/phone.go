package utils

import "strings"

// NormalizePhone keeps only the ASCII digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether a normalized phone number has 10 to 15 digits.
func ValidPhone(digits string) bool {
	return len(digits) >= 10 && len(digits) <= 15
}
