// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "BR"

// ErrInvalidPhone is returned when a number does not reduce to 10 or 11 digits.
var ErrInvalidPhone = errors.New("phone must contain 10 or 11 digits")

// NormalizeDigits strips everything but ASCII digits and accepts the result
// only when it is a Brazilian area code plus 8 or 9 digit subscriber number.
func NormalizeDigits(input string) (string, error) {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 11 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// IsValidDigits reports whether input normalizes successfully.
func IsValidDigits(input string) bool {
	_, err := NormalizeDigits(input)
	return err == nil
}

// NormalizeE164 formats a phone number to E.164, assuming Brazil when no
// country code is present. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
