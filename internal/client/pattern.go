package client

import "strings"

// regex metacharacters that must be escaped when the user typed a literal
// substring rather than a pattern.
const patternMeta = `.*+?^${}()|[]\`

// CompilePattern turns user input into the pattern sent to the backend.
// Regex input passes through verbatim; an invalid expression is rejected by
// the server, not here. Substring input is escaped character by character
// and wrapped so it matches anywhere inside a code.
func CompilePattern(input string, isRegex bool) string {
	if isRegex {
		return input
	}
	var b strings.Builder
	b.Grow(len(input)*2 + 4)
	b.WriteString(".*")
	for _, r := range input {
		if r < 128 && strings.ContainsRune(patternMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString(".*")
	return b.String()
}
