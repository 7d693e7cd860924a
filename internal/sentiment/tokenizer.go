// Package sentiment classifies article text as positive, negative or neutral.
package sentiment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength is the classifier's input window in tokens
const DefaultMaxLength = 512

// reservedTokens are the classifier's start and separator slots
const reservedTokens = 2

// Token is one unit of BERT-style basic tokenization with its byte span in
// the source text
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize splits text on whitespace and punctuation, lowercasing words.
// Control characters are dropped. Every punctuation rune is its own token.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, Token{Text: strings.ToLower(text[start:end]), Start: start, End: end})
			start = -1
		}
	}

	for i, r := range text {
		switch {
		case r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)):
			flush(i)
		case unicode.IsSpace(r):
			flush(i)
		case isPunct(r):
			flush(i)
			end := i + utf8.RuneLen(r)
			tokens = append(tokens, Token{Text: text[i:end], Start: i, End: end})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))

	return tokens
}

// isPunct matches BERT's notion of punctuation: ASCII symbols plus Unicode P*
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// Truncate keeps the leading tokens that fit in a window of maxLength,
// leaving room for the classifier's two special tokens
func Truncate(tokens []Token, maxLength int) []Token {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	limit := maxLength - reservedTokens
	if limit < 1 {
		limit = 1
	}
	if len(tokens) <= limit {
		return tokens
	}
	return tokens[:limit]
}

// TruncateText returns the prefix of text covered by the first tokens that
// fit in maxLength. The original casing and spacing are kept.
func TruncateText(text string, maxLength int) (string, int) {
	tokens := Truncate(Tokenize(text), maxLength)
	if len(tokens) == 0 {
		return "", 0
	}
	return text[:tokens[len(tokens)-1].End], len(tokens)
}

// Words returns the token texts
func Words(tokens []Token) []string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}
	return words
}
