package analysis

import (
	"github.com/cognicore/meiyo/pkg/meiyo/normalize"
	"github.com/cognicore/meiyo/pkg/meiyo/tokenize"
)

// Pipeline orchestrates text preparation:
// text → normalization → lemmatization → lemma normalization
type Pipeline struct {
	normalizer *normalize.Normalizer
	tokenizer  *tokenize.Tokenizer
}

// NewPipeline creates a pipeline with the given components. A nil tokenizer
// yields no tokens, which disables token-subset matching.
func NewPipeline(normalizer *normalize.Normalizer, tokenizer *tokenize.Tokenizer) *Pipeline {
	if normalizer == nil {
		normalizer = normalize.New()
	}
	return &Pipeline{
		normalizer: normalizer,
		tokenizer:  tokenizer,
	}
}

// Analysis is a text after preparation
type Analysis struct {
	Normalized string
	Tokens     []string
}

// Process runs text through the full pipeline
func (p *Pipeline) Process(text string) Analysis {
	normalized := p.Normalize(text)
	return Analysis{
		Normalized: normalized,
		Tokens:     p.Tokenize(normalized),
	}
}

// Normalize returns the canonical form of text.
func (p *Pipeline) Normalize(text string) string {
	return p.normalizer.Normalize(text)
}

// Tokenize lemmatizes already-normalized text. Lemmas are normalized again
// because base forms can come back in katakana or full-width.
func (p *Pipeline) Tokenize(normalized string) []string {
	if p.tokenizer == nil {
		return nil
	}
	lemmas := p.tokenizer.Tokenize(normalized)
	if len(lemmas) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(lemmas))
	for _, l := range lemmas {
		if l = p.normalizer.Normalize(l); l != "" {
			tokens = append(tokens, l)
		}
	}
	return tokens
}
