package vsm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxInputRunes bounds how much of a text is tokenized.
	MaxInputRunes = 100000

	// MaxBigramPositions bounds how many adjacent pairs are considered for bigrams.
	MaxBigramPositions = 2000

	// Unigram length bounds, both exclusive.
	minTokenRunes = 2
	maxTokenRunes = 20

	// Both words of a bigram must be longer than this.
	minBigramPartRunes = 3
)

var (
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	commentRe     = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
)

// Tokenize turns raw (possibly HTML) text into index terms.
//
// The result holds the filtered unigrams in text order followed by the
// bigrams "w1_w2" built from adjacent unigrams. Empty input yields nil.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	text = truncateRunes(text, MaxInputRunes)
	text = styleBlockRe.ReplaceAllString(text, " ")
	text = scriptBlockRe.ReplaceAllString(text, " ")
	text = commentRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = norm.NFC.String(text)
	text = strings.ToLower(text)
	text = strings.Map(keepRune, text)

	var tokens []string
	for _, word := range strings.Fields(text) {
		if keepToken(word) {
			tokens = append(tokens, word)
		}
	}

	limit := len(tokens) - 1
	if limit > MaxBigramPositions {
		limit = MaxBigramPositions
	}
	for i := 0; i < limit; i++ {
		w1, w2 := tokens[i], tokens[i+1]
		if utf8.RuneCountInString(w1) > minBigramPartRunes && utf8.RuneCountInString(w2) > minBigramPartRunes {
			tokens = append(tokens, w1+"_"+w2)
		}
	}

	return tokens
}

// keepRune maps every rune that is not a word character, whitespace or in
// the Latin-extended/Vietnamese range U+00C0..U+1EF9 to a space.
func keepRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return r
	case r >= 0x00C0 && r <= 0x1EF9:
		return r
	case unicode.IsSpace(r):
		return r
	default:
		return ' '
	}
}

func keepToken(word string) bool {
	n := utf8.RuneCountInString(word)
	if n <= minTokenRunes || n >= maxTokenRunes {
		return false
	}
	if strings.HasPrefix(word, "_") {
		return false
	}
	if strings.ContainsAny(word, "0123456789") {
		return false
	}
	return !IsStopWord(word)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
