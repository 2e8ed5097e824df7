package directory

import (
	"errors"
	"fmt"
	"strings"
)

// CIKLength is the length of a canonical, zero-padded CIK.
const CIKLength = 10

// ErrInvalidIdentifier is returned when user input is not a known canonical CIK.
var ErrInvalidIdentifier = errors.New("invalid CIK provided")

// IsIdentifier reports whether s is in canonical CIK form: exactly ten ASCII digits.
func IsIdentifier(s string) bool {
	if len(s) != CIKLength {
		return false
	}

	return isDigits(s)
}

// CanonicalCIK zero-pads a numeric CIK to ten digits. It rejects empty,
// non-numeric and over-long input.
func CanonicalCIK(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > CIKLength || !isDigits(raw) {
		return "", false
	}

	return strings.Repeat("0", CIKLength-len(raw)) + raw, true
}

// FormatCIK renders a numeric CIK in canonical form.
func FormatCIK(cik int64) string {
	return fmt.Sprintf("%0*d", CIKLength, cik)
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
