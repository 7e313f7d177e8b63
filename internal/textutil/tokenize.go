package textutil

import "unicode"

// Tokenize splits normalized text into maximal runs of letters and numbers.
// Everything else is a separator and is dropped. The result is never nil.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/6+1)
	start := -1
	for i, r := range text {
		if isAlnum(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// NormalizeAndTokenize is Tokenize(Normalize(text)).
func NormalizeAndTokenize(text string) []string {
	return Tokenize(Normalize(text))
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
