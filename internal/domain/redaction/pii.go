package redaction

import (
	"strings"
	"unicode"
)

// PIIKind classifies a raw value that looks like personal data.
type PIIKind string

const (
	PIIKindSAID     PIIKind = "sa_id"
	PIIKindPassport PIIKind = "passport"
	PIIKindPhone    PIIKind = "phone"
)

// minFlaggableLength: values shorter than this are never flagged.
const minFlaggableLength = 6

// PIIDetector is a heuristic classifier biased toward over-redaction: a false
// positive costs a needless alias, a false negative leaks PII.
type PIIDetector struct{}

func NewPIIDetector() PIIDetector {
	return PIIDetector{}
}

// Detect decides whether a raw string value, with no field-name context,
// looks like an SA ID number, a phone number or a passport number. The SA-ID
// check runs before the phone check: a 13-digit value satisfies both.
func (PIIDetector) Detect(value string) (PIIKind, bool) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < minFlaggableLength {
		return "", false
	}

	digits, digitsOnly := stripSeparators(trimmed)
	if digitsOnly {
		if len(digits) == 13 {
			return PIIKindSAID, true
		}
		if len(digits) >= 7 && len(digits) <= 15 {
			return PIIKindPhone, true
		}
	}

	if looksLikePassport(trimmed) {
		return PIIKindPassport, true
	}
	return "", false
}

// Mask keeps minimal verification context: the last two digits of an SA ID,
// the last two characters of a passport, nothing of a phone number.
func (PIIDetector) Mask(kind PIIKind, value string) string {
	trimmed := strings.TrimSpace(value)

	switch kind {
	case PIIKindSAID:
		digits, _ := stripSeparators(trimmed)
		return maskKeepingSuffix(digits, 2)
	case PIIKindPassport:
		return maskKeepingSuffix(trimmed, 2)
	case PIIKindPhone:
		digits, _ := stripSeparators(trimmed)
		return strings.Repeat("*", len(digits))
	default:
		return strings.Repeat("*", len(trimmed))
	}
}

func maskKeepingSuffix(value string, keep int) string {
	if len(value) <= keep {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-keep) + value[len(value)-keep:]
}

// stripSeparators removes common number punctuation. The second return is
// false when anything other than digits and separators remains.
func stripSeparators(value string) (string, bool) {
	var digits strings.Builder
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.' || r == '+':
			// separator, skip
		default:
			return "", false
		}
	}
	return digits.String(), true
}

// looksLikePassport: 6-12 alphanumeric characters with at least one letter.
// The letter requirement keeps all-digit values in the phone/SA-ID rules.
func looksLikePassport(value string) bool {
	if len(value) < 6 || len(value) > 12 {
		return false
	}

	hasLetter := false
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			// allowed
		default:
			return false
		}
	}
	return hasLetter
}
