package codegen

import (
	"strings"
	"unicode"
)

// splitWords breaks s at every rune that cannot appear in an identifier.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// toPascalCase joins the words of s with their first letter upper-cased.
// The result is empty when s has no letters or digits.
func toPascalCase(s string) string {
	var sb strings.Builder
	for _, word := range splitWords(s) {
		runes := []rune(word)
		sb.WriteRune(unicode.ToUpper(runes[0]))
		sb.WriteString(string(runes[1:]))
	}
	return sb.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// packageName returns pkg, or a package name made from name: lower-case
// ASCII letters and digits, not starting with a digit.
func packageName(pkg, name string) string {
	if pkg == "" {
		pkg = name
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(pkg) {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9' && sb.Len() > 0:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "automaton"
	}
	return sb.String()
}
