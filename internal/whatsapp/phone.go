// Package whatsapp builds the prefilled reservation messages and wa.me deep
// links sent to complex owners.
package whatsapp

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Peru country calling code, prefixed to local 9-digit mobile numbers.
const peruCountryCode = "51"

// ErrNoWhatsAppNumber is returned when an owner phone cannot be turned into a
// WhatsApp destination.
var ErrNoWhatsAppNumber = errors.New("no valid WhatsApp number configured")

// NormalizePhone converts an owner contact phone into the digit-only form
// wa.me expects. Formatting characters are stripped; a 9-digit number starting
// with "9" is assumed to be a Peru-local mobile and gets the country code
// prefixed; anything with 10 or more digits passes through unchanged.
func NormalizePhone(raw string) (string, error) {
	digits := digitsOnly(strings.TrimSpace(raw))
	if digits == "" {
		return "", ErrNoWhatsAppNumber
	}
	if len(digits) == 9 && digits[0] == '9' {
		return peruCountryCode + digits, nil
	}
	if len(digits) >= 10 {
		return digits, nil
	}
	return "", ErrNoWhatsAppNumber
}

// ValidMobile reports whether a normalized number parses as a real mobile (or
// fixed-or-mobile) line. Used as a soft signal only: delivery is WhatsApp's
// problem, not ours.
func ValidMobile(normalized string) bool {
	parsed, err := phonenumbers.Parse("+"+normalized, "")
	if err != nil {
		return false
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return false
	}
	switch phonenumbers.GetNumberType(parsed) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return true
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
