// Package identity normalizes and validates Chilean national IDs (RUN).
package identity

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalidID = errors.New("invalid national ID")

// Normalize strips formatting characters from a raw RUN, verifies its mod-11
// check digit and returns the canonical "<digits>-<check>" form. It is
// idempotent: normalizing an already-normalized RUN yields the same string.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	if len(clean) < 7 {
		return "", fmt.Errorf("%w: too short", ErrInvalidID)
	}

	body := clean[:len(clean)-1]
	check := clean[len(clean)-1]

	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return "", fmt.Errorf("%w: body must contain only digits", ErrInvalidID)
		}
	}
	if check != 'K' && (check < '0' || check > '9') {
		return "", fmt.Errorf("%w: check character must be a digit or K", ErrInvalidID)
	}
	if want := CheckDigit(body); check != want {
		return "", fmt.Errorf("%w: check digit mismatch, expected %c", ErrInvalidID, want)
	}

	return fmt.Sprintf("%s-%c", body, check), nil
}

// CheckDigit computes the mod-11 check character for a digit string: each
// digit is multiplied right-to-left by a weight cycling 2..7, the remainder
// 11-(sum%11) maps 11 to '0', 10 to 'K' and anything else to itself.
func CheckDigit(body string) byte {
	sum := 0
	weight := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		if weight == 7 {
			weight = 2
		} else {
			weight++
		}
	}

	switch r := 11 - sum%11; r {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + r)
	}
}

// FormatName collapses internal whitespace and applies title case, so names
// and specialties are stored in a consistent, searchable form.
func FormatName(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}
