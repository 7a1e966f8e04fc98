package home

import (
	"strings"
	"unicode"
)

// maxSlugLen bounds generated filenames.
const maxSlugLen = 80

// Slugify turns an arbitrary name (section heading, PDF stem) into a
// safe filename component. Whitespace runs become single underscores,
// anything outside letters/digits/._-() is dropped, and the result is
// truncated. Never returns an empty string.
func Slugify(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '-' || r == '(' || r == ')' || r == '_':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "_")
	if runes := []rune(out); len(runes) > maxSlugLen {
		out = string(runes[:maxSlugLen])
	}
	if out == "" {
		return "section"
	}
	return out
}
