package domain

import (
	"strings"
	"unicode"
)

// CleanText prepares free text scraped from an external source:
//   - strips control characters (tabs and newlines count as whitespace)
//   - trims leading/trailing whitespace
//   - compresses every whitespace run into a single space
//
// Case is preserved.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeText is CleanText followed by lower-casing. It is the comparison
// form for club names and alternate names.
func NormalizeText(text string) string {
	return strings.ToLower(CleanText(text))
}

// NormalizeEmail trims and lower-cases an e-mail address. It does not
// validate the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OptionalText returns a pointer to the cleaned text, or nil when nothing
// is left after cleaning.
func OptionalText(text string) *string {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
