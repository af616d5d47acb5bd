package tokenize

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Kagome is a Backend built on the kagome morphological analyzer with the
// IPA dictionary. It also provides kanji readings for the normalizer.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome loads the IPA dictionary and builds the analyzer.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

// Lemmas implements Backend. Each morpheme contributes its base form, or its
// surface when the dictionary has no base form for it.
func (k *Kagome) Lemmas(text string) ([]string, error) {
	tokens := k.t.Tokenize(text)
	lemmas := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isBlank(tok.Surface) {
			continue
		}
		base, ok := tok.BaseForm()
		if !ok || base == "" || base == "*" {
			base = tok.Surface
		}
		lemmas = append(lemmas, base)
	}
	return lemmas, nil
}

// Reading returns text with every morpheme that has a dictionary reading
// replaced by that reading (katakana). Unknown morphemes keep their surface.
func (k *Kagome) Reading(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range k.t.Tokenize(text) {
		reading, ok := tok.Reading()
		if !ok || reading == "" || reading == "*" || !hasHan(tok.Surface) {
			b.WriteString(tok.Surface)
			continue
		}
		b.WriteString(reading)
	}
	return b.String()
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
