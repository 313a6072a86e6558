// Package query rewrites free-text note searches so that OR between plain
// keywords behaves the same as OR between structured attribute filters.
package query

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize splits q into tokens. A token is either a double-quoted phrase,
// quotes included, or a maximal run of non-whitespace. Backslash escapes
// inside a phrase are kept verbatim and never close it. A quote with no
// closing partner is treated as an ordinary character.
func Tokenize(q string) []string {
	tokens := []string{}
	i := 0
	for i < len(q) {
		r, size := utf8.DecodeRuneInString(q[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		if r == '"' {
			if end := closingQuote(q, i+1); end != -1 {
				tokens = append(tokens, q[i:end+1])
				i = end + 1
				continue
			}
		}

		start := i
		for i < len(q) {
			r, size = utf8.DecodeRuneInString(q[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		tokens = append(tokens, q[start:i])
	}
	return tokens
}

// closingQuote returns the index of the quote ending a phrase whose body
// starts at from, or -1 when the phrase is unterminated.
func closingQuote(q string, from int) int {
	for j := from; j < len(q); j++ {
		switch q[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return -1
}
