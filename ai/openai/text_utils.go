package openai

import (
	"strings"
	"unicode"
)

// maxPromptText bounds any single piece of user text placed in a prompt.
const maxPromptText = 300

// sanitize drops control characters, collapses whitespace and truncates text
// before it is placed in a prompt.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxPromptText {
		s = string(r[:maxPromptText])
	}
	return s
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
