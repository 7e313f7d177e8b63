package textutil

import "strings"

// shingleSep joins tokens inside a Shingle. Tokens are alphanumeric, so the
// separator can never occur inside one.
const shingleSep = "\x01"

// Shingle is an ordered window of consecutive tokens, packed into a string so
// it can key a map.
type Shingle string

// NewShingle packs tokens into a Shingle.
func NewShingle(tokens ...string) Shingle {
	return Shingle(strings.Join(tokens, shingleSep))
}

// Tokens unpacks the shingle.
func (s Shingle) Tokens() []string {
	if s == "" {
		return nil
	}
	return strings.Split(string(s), shingleSep)
}

// String renders the shingle as space separated tokens.
func (s Shingle) String() string {
	return strings.ReplaceAll(string(s), shingleSep, " ")
}

// MakeShingles returns every contiguous window of n tokens, in order and with
// repeats. It returns an empty slice when n <= 0 or there are fewer than n tokens.
func MakeShingles(tokens []string, n int) []Shingle {
	if n <= 0 || len(tokens) < n {
		return []Shingle{}
	}
	out := make([]Shingle, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, NewShingle(tokens[i:i+n]...))
	}
	return out
}
