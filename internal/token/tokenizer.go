// Package token converts raw text segments into normalized tag tokens.
//
// A token is a maximal run of letters/digits; everything else separates.
// Tokens are lowercased, stop-word filtered, and reduced to their
// dictionary base form when a lemmatizer is configured.
package token

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"
)

// Tokenizer produces tag tokens with per-call occurrence counts.
// A nil lemmatizer is valid and leaves tokens unlemmatized.
type Tokenizer struct {
	lemmatizer Lemmatizer
	logger     *slog.Logger

	// A lemmatizer failure is logged once per process, then silently
	// falls back to the raw token. Indexing never aborts over it.
	lemmaWarnOnce sync.Once
}

// NewTokenizer creates a tokenizer. logger must not be nil.
func NewTokenizer(lemmatizer Lemmatizer, logger *slog.Logger) *Tokenizer {
	return &Tokenizer{
		lemmatizer: lemmatizer,
		logger:     logger,
	}
}

// Tokenize scans the given segments and returns token -> occurrence
// count within this call. Stop words are discarded after lowercasing
// and before lemmatization. Never returns an error.
func (t *Tokenizer) Tokenize(segments []string, stopWords map[string]struct{}) map[string]int {
	counts := make(map[string]int)

	for _, segment := range segments {
		var current strings.Builder
		for _, r := range segment {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				current.WriteRune(unicode.ToLower(r))
				continue
			}
			t.accumulate(counts, current.String(), stopWords)
			current.Reset()
		}
		t.accumulate(counts, current.String(), stopWords)
	}

	return counts
}

// Normalize reduces a free-form user string to the canonical
// single-token form used as a tag key: trimmed, lowercased,
// re-tokenized, lemmatized. Returns "" when no token survives.
func (t *Tokenizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	counts := t.Tokenize([]string{trimmed}, nil)
	if len(counts) == 0 {
		return ""
	}

	// A free-form chip entry should be a single token already; when it
	// is not, the alphabetically first token wins for determinism.
	best := ""
	for tok := range counts {
		if best == "" || tok < best {
			best = tok
		}
	}
	return best
}

// accumulate filters and lemmatizes one raw token and counts it.
func (t *Tokenizer) accumulate(counts map[string]int, tok string, stopWords map[string]struct{}) {
	if tok == "" {
		return
	}
	if _, stop := stopWords[tok]; stop {
		return
	}
	counts[t.lemma(tok)]++
}

// lemma reduces tok to its base form, falling back to the raw token on
// any lemmatizer error.
func (t *Tokenizer) lemma(tok string) string {
	if t.lemmatizer == nil {
		return tok
	}

	base, err := t.lemmatizer.Lemma(tok)
	if err != nil || base == "" {
		t.lemmaWarnOnce.Do(func() {
			t.logger.Warn("lemmatizer_failed_falling_back",
				slog.String("token", tok),
				slog.Any("error", err))
		})
		return tok
	}
	return strings.ToLower(base)
}
