package util

import (
	"errors"
	"strings"
	"unicode"
)

const countryCode = "1"

// ErrInvalidPhone is returned for inputs that cannot be reduced to a North American number.
var ErrInvalidPhone = errors.New("not a valid phone number")

// NormalizePhone reduces any phone representation to E.164, e.g. "587-306-6133" -> "+15873066133".
// Accepts 10 digits or 11 digits with a leading country code. Idempotent on its own output.
func NormalizePhone(input string) (string, error) {
	var digits strings.Builder
	for _, r := range input {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case len(d) == 10:
		return "+" + countryCode + d, nil
	case len(d) == 11 && strings.HasPrefix(d, countryCode):
		return "+" + d, nil
	default:
		return "", ErrInvalidPhone
	}
}

// FormatPretty renders a number for display, e.g. "+15873066133" -> "+1 (587) 306-6133".
// Falls back to the raw input when it does not normalize. Never used as a storage key.
func FormatPretty(input string) string {
	e164, err := NormalizePhone(input)
	if err != nil {
		return input
	}
	ten := e164[2:]
	return "+" + countryCode + " (" + ten[0:3] + ") " + ten[3:6] + "-" + ten[6:]
}
