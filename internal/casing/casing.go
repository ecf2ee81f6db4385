package casing

import (
	"strings"
	"unicode"
)

// ToKebabCase turns a Go-style identifier (NotesView, note_detail) into its
// kebab-case form (notes-view, note-detail).
func ToKebabCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || r == ' ':
			result.WriteRune('-')
		case i > 0 && unicode.IsUpper(r):
			if s[i-1] == '_' || s[i-1] == ' ' {
				result.WriteRune(unicode.ToLower(r))
				continue
			}
			if unicode.IsLower(rune(s[i-1])) || // previous letter is lowercase
				(i+1 < len(s) && unicode.IsLower(rune(s[i+1]))) { // or next letter is lowercase
				result.WriteRune('-')
			}
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune(unicode.ToLower(r))
		}
	}
	return result.String()
}

func KebabToTitleCase(s string) string {
	var result strings.Builder
	capitalize := true

	for _, r := range s {
		switch {
		case r == '-':
			result.WriteRune(' ')
			capitalize = true
		case capitalize:
			result.WriteRune(unicode.ToUpper(r))
			capitalize = false
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// ToSnakeCase is ToKebabCase with underscores, as used in operation ids.
func ToSnakeCase(s string) string {
	return strings.ReplaceAll(ToKebabCase(s), "-", "_")
}
