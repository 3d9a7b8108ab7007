package cfront

import "strings"

// DisplayTokens renders a token stream back to source-like text, one
// token's written form per entry, single-space separated. It is a
// debug helper, not a formatter: round-tripping the result through
// Lex is expected to reproduce an equivalent stream modulo
// whitespace (spec.md §6 item 5, §8).
func DisplayTokens(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == TokEOF {
			continue
		}
		parts = append(parts, t.Text())
	}
	return strings.Join(parts, " ")
}
