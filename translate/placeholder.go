package translate

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches iOS format specifiers such as %@, %lld, %d,
// including positional forms like %1$@ so that unwanted rewrites are caught.
var placeholderPattern = regexp.MustCompile(`%(?:\d+\$)?(?:@|lld|ld|d|f|s|u|i|o|x|X|e|E|g|G|c|C|p|a|A|F)`)

// Placeholders extracts the iOS format specifiers from a string in order.
func Placeholders(text string) []string {
	return placeholderPattern.FindAllString(text, -1)
}

// CheckPlaceholders compares the format specifiers of a source string and
// its translation. It returns a human-readable description of the drift, or
// an empty string when they match exactly (count and order).
func CheckPlaceholders(source, translated string) string {
	src := Placeholders(source)
	dst := Placeholders(translated)
	if len(src) != len(dst) {
		return fmt.Sprintf("source has %v, translation has %v", src, dst)
	}
	for i := range src {
		if src[i] != dst[i] {
			return fmt.Sprintf("source has %v, translation has %v", src, dst)
		}
	}
	return ""
}
