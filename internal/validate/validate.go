// Package validate holds the pure field validators of the application
// wizard. Validators are total functions with no side effects; they run
// on every input change and again before every step advance.
package validate

import (
	"strings"
	"unicode"

	"github.com/globalminds/visaflow/pkg/api"
)

const (
	minNameLetters = 3
	phoneLength    = 10
	maxDigitRun    = 4
)

// Name accepts strings of at least three letters, containing only
// letters and spaces.
func Name(s string) error {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
			// Spaces are allowed and do not count toward the minimum.
		case unicode.IsDigit(r):
			return api.NewValidationError(api.KindContainsDigit, "name must not contain digits")
		default:
			return api.NewValidationError(api.KindContainsSymbol, "name must not contain symbols")
		}
	}
	if letters < minNameLetters {
		return api.NewValidationError(api.KindTooShort, "name must have at least 3 letters")
	}
	return nil
}

// Email requires exactly one "@" with a non-empty local part and a
// domain containing a dot that is neither leading nor trailing.
func Email(s string) error {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return api.NewValidationError(api.KindMalformedEmail, "enter a valid email address")
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return api.NewValidationError(api.KindMalformedEmail, "enter a valid email address")
	}
	if strings.ContainsAny(s, " \t") {
		return api.NewValidationError(api.KindMalformedEmail, "enter a valid email address")
	}
	return nil
}

// Phone requires a number that normalizes to a 10-digit body starting
// with 6-9 and containing no run of 5 identical consecutive digits.
//
// Normalization strips common separators (spaces, dashes, dots,
// parentheses) and a single "+91", "91" or leading "0" prefix.
func Phone(s string) error {
	body, err := normalizePhone(s)
	if err != nil {
		return err
	}
	if len(body) != phoneLength {
		return api.NewValidationError(api.KindWrongLength, "phone number must have 10 digits")
	}
	if body[0] < '6' || body[0] > '9' {
		return api.NewValidationError(api.KindBadLeadingDigit, "phone number must start with 6-9")
	}
	run := 1
	for i := 1; i < len(body); i++ {
		if body[i] == body[i-1] {
			run++
			if run > maxDigitRun {
				return api.NewValidationError(api.KindRepeatedDigitRun, "phone number looks invalid")
			}
		} else {
			run = 1
		}
	}
	return nil
}

func normalizePhone(s string) (string, error) {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// Separator, dropped.
		case r == '+' && i == 0:
			// Country-code prefix marker, dropped.
		default:
			return "", api.NewValidationError(api.KindNonNumeric, "phone number must contain only digits")
		}
	}
	digits := b.String()
	switch {
	case len(digits) == phoneLength+2 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == phoneLength+1 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	return digits, nil
}
