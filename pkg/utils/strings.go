// Package utils holds nil-safe string helpers. A nil *string stands for an
// absent value and is kept distinct from the empty string.
package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IsEmpty reports whether text is nil or contains only whitespace.
func IsEmpty(text *string) bool {
	return text == nil || strings.TrimSpace(*text) == ""
}

// CompareNullSafe compares two strings ignoring case. A nil string sorts
// before any non-nil one and two nil strings are equal.
func CompareNullSafe(a, b *string) int {
	return CompareNullSafeCase(a, b, true)
}

// CompareNullSafeCase is CompareNullSafe with explicit case handling.
// The result is -1, 0 or 1.
func CompareNullSafeCase(a, b *string, ignoreCase bool) int {
	if (a == nil) != (b == nil) {
		if a == nil {
			return -1
		}
		return 1
	}
	if a == nil {
		return 0
	}
	if ignoreCase {
		// Casers carry state and are built per call.
		fold := cases.Fold()
		return strings.Compare(fold.String(*a), fold.String(*b))
	}
	return strings.Compare(*a, *b)
}

// FirstLetterUppercase upper-cases the first rune of text. Empty or blank
// input yields nil.
func FirstLetterUppercase(text *string) *string {
	if IsEmpty(text) {
		return nil
	}
	_, size := utf8.DecodeRuneInString(*text)
	out := cases.Upper(language.Und).String((*text)[:size]) + (*text)[size:]
	return &out
}

// EmptyStringIfNil dereferences text, mapping nil to "".
func EmptyStringIfNil(text *string) string {
	if text == nil {
		return ""
	}
	return *text
}

// Truncate returns at most limit runes of text. Empty or blank input yields
// nil; a negative limit behaves like zero.
func Truncate(text *string, limit int) *string {
	if IsEmpty(text) {
		return nil
	}
	if limit < 0 {
		limit = 0
	}
	s := *text
	if utf8.RuneCountInString(s) <= limit {
		return &s
	}
	runes := []rune(s)
	out := string(runes[:limit])
	return &out
}
