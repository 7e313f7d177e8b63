package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

// MinHitRate is the stop-word rate a language must reach to be reported.
const MinHitRate = 0.005

// Unknown is the placeholder written when no language could be detected.
const Unknown = "?"

type entry struct {
	tag       xlang.Tag
	display   string
	stopWords map[string]struct{}
}

// Stop words are stored in normalized form (lowercase, marks stripped) because
// they are matched against normalized tokens.
var (
	german = entry{
		tag:     xlang.German,
		display: "German",
		stopWords: set(
			"der", "die", "das", "und", "ist", "im", "in", "den", "ein", "eine", "ich", "du", "er", "sie", "wir", "ihr",
			"nicht", "mit", "auf", "fur", "zu", "von", "wie", "einfach", "auch", "so", "nur", "noch", "dass", "an", "am",
			"dem", "des", "sind",
		),
	}
	english = entry{
		tag:     xlang.English,
		display: "English",
		stopWords: set(
			"the", "and", "is", "in", "to", "of", "that", "it", "for", "on", "you", "i", "me", "my", "we", "they", "he",
			"she", "a", "an", "with", "as", "so", "but", "at", "by", "from", "are", "was", "be", "your", "our", "not",
			"copyright", "know",
		),
	}
)

// German and English are checked in this order; ties go to German.
var languages = []*entry{&german, &english}

func set(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func (e *entry) code() string {
	base, _ := e.tag.Base()
	return base.String()
}

// Detect returns the ISO 639-1 code of the language whose stop words make up
// the largest share of tokens, or "" when no language reaches MinHitRate.
func Detect(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	hits := make([]int, len(languages))
	for _, tok := range tokens {
		for i, e := range languages {
			if _, ok := e.stopWords[tok]; ok {
				hits[i]++
			}
		}
	}
	best := -1
	var bestRate float64
	for i := range languages {
		rate := float64(hits[i]) / float64(len(tokens))
		if best < 0 || rate > bestRate {
			best, bestRate = i, rate
		}
	}
	if bestRate < MinHitRate {
		return ""
	}
	return languages[best].code()
}

// DisplayName returns a human-readable name for a supported code.
// Returns "Unknown" for empty or placeholder input and the uppercased code otherwise.
func DisplayName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Unknown {
		return "Unknown"
	}
	for _, e := range languages {
		if code == e.code() {
			return e.display
		}
	}
	return strings.ToUpper(code)
}
