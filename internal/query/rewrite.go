package query

import "strings"

const containsOp = "note.content *=* "

// Preprocess rewrites a search query whose top-level OR joins bare keyword
// segments into explicit content-contains expressions. Queries without a
// top-level OR, and queries whose OR segments are all structured, are
// returned unchanged. Preprocess never fails.
func Preprocess(q string) string {
	tokens := Tokenize(q)
	if len(tokens) == 0 {
		return q
	}

	segments := splitOr(tokens)
	if len(segments) <= 1 {
		return q
	}

	anyBare := false
	for _, seg := range segments {
		if IsBareFulltext(seg) {
			anyBare = true
			break
		}
	}
	if !anyBare {
		return q
	}

	rewritten := make([]string, 0, len(segments))
	for _, seg := range segments {
		rewritten = append(rewritten, rewriteSegment(seg))
	}
	return strings.Join(rewritten, " OR ")
}

// splitOr splits tokens at every standalone "or" token. Empty segments
// produced by leading, trailing or repeated operators are dropped.
func splitOr(tokens []string) [][]string {
	var segments [][]string
	var current []string
	for _, tok := range tokens {
		if strings.EqualFold(tok, "or") {
			if len(current) > 0 {
				segments = append(segments, current)
			}
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

func rewriteSegment(seg []string) string {
	if !IsBareFulltext(seg) {
		return strings.Join(seg, " ")
	}
	if len(seg) == 1 {
		return containsOp + seg[0]
	}

	terms := make([]string, len(seg))
	for i, tok := range seg {
		terms[i] = containsOp + tok
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}
