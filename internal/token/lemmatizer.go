package token

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Lemmatizer reduces a token to its dictionary base form
// (e.g. "heads" -> "head"). Implementations must be safe for
// concurrent use after construction.
type Lemmatizer interface {
	Lemma(word string) (string, error)
}

// golemLemmatizer wraps the golem English dictionary lemmatizer.
type golemLemmatizer struct {
	inner *golem.Lemmatizer
}

// Verify interface implementation at compile time
var _ Lemmatizer = (*golemLemmatizer)(nil)

// NewEnglishLemmatizer loads the embedded English dictionary.
func NewEnglishLemmatizer() (Lemmatizer, error) {
	inner, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmatizer dictionary: %w", err)
	}
	return &golemLemmatizer{inner: inner}, nil
}

// Lemma implements Lemmatizer. Unknown words come back unchanged,
// which is the fallback the tokenizer wants anyway.
func (g *golemLemmatizer) Lemma(word string) (string, error) {
	return g.inner.Lemma(word), nil
}
