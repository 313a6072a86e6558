package query

import "strings"

// IsBareFulltext reports whether a segment consists only of plain search
// words or phrases. Any attribute sigil, property path, negation, bracket or
// comparison character makes the whole segment structured.
func IsBareFulltext(tokens []string) bool {
	for _, tok := range tokens {
		if isStructured(tok) {
			return false
		}
	}
	return true
}

func isStructured(tok string) bool {
	switch {
	case strings.HasPrefix(tok, "#"), strings.HasPrefix(tok, "~"):
		return true
	case strings.HasPrefix(tok, "note."):
		return true
	case strings.HasPrefix(tok, "not("):
		return true
	case strings.ContainsAny(tok, "=<>"):
		return true
	case strings.Contains(strings.TrimRight(tok, "!"), "!"):
		// Trailing exclamation marks are emphasis, not negation.
		return true
	case strings.HasPrefix(tok, "("), strings.HasPrefix(tok, ")"):
		return true
	}
	return false
}
