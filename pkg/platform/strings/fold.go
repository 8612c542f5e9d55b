// Package strings holds the small, pure string primitives the registries rely on.
package strings

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s, used for case-insensitive
// uniqueness. "Mike", "MIKE" and "mIkE" share one folded form.
func Fold(s string) string {
	// A Caser carries state and must not be shared across goroutines.
	return cases.Fold().String(s)
}

// IsEmpty reports whether s has no bytes.
func IsEmpty(s string) bool {
	return len(s) == 0
}

// Length counts code points, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
