package interactions

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns message text into the token stream fed to topic models.
// A token survives when it is not a stopword, matches the validity pattern and
// its length lies strictly between MinLen and MaxLen.
type Tokenizer struct {
	stop   map[string]bool
	valid  *regexp.Regexp
	minLen int
	maxLen int
	lower  cases.Caser
}

func NewTokenizer(stopwords []string, pattern string, minLen, maxLen int) (*Tokenizer, error) {
	valid, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling token pattern: %w", err)
	}
	stop := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return &Tokenizer{
		stop:   stop,
		valid:  valid,
		minLen: minLen,
		maxLen: maxLen,
		lower:  cases.Lower(language.Und),
	}, nil
}

// Tokenize splits doc into filtered tokens. Not safe for concurrent use: the
// underlying cases.Caser keeps state.
func (t *Tokenizer) Tokenize(doc string) []string {
	text := t.lower.String(norm.NFKC.String(doc))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, w := range fields {
		n := len([]rune(w))
		if n <= t.minLen || n >= t.maxLen {
			continue
		}
		if t.stop[w] || !t.valid.MatchString(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
