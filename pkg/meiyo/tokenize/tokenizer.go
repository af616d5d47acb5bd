package tokenize

import (
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
)

// DefaultCacheSize is the number of distinct inputs whose lemmas are kept.
const DefaultCacheSize = 1000

// Backend reduces text to base-form tokens.
type Backend interface {
	Lemmas(text string) ([]string, error)
}

// Tokenizer memoizes a Backend and hides its failures.
type Tokenizer struct {
	backend Backend
	cache   *lru.Cache[string, []string]
	logger  *slog.Logger
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tokenizer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a tokenizer over backend with an LRU of cacheSize entries.
// A cacheSize <= 0 disables memoization.
func New(backend Backend, cacheSize int, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		backend: backend,
		logger:  slog.Default(),
	}
	if cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		t.cache, _ = lru.New[string, []string](cacheSize)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize returns the lemma sequence for text. When the backend cannot
// segment the input, the raw string is returned as the only token.
func (t *Tokenizer) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if t.cache != nil {
		if tokens, ok := t.cache.Get(text); ok {
			return tokens
		}
	}

	tokens, err := t.lemmas(text)
	if err != nil || len(tokens) == 0 {
		if err == nil {
			err = fmt.Errorf("%w: backend returned no tokens", internalerr.ErrTokenization)
		}
		t.logger.Debug("tokenizer fallback to raw input", "error", err, "length", len(text))
		tokens = []string{text}
	}

	if t.cache != nil {
		t.cache.Add(text, tokens)
	}
	return tokens
}

// Len reports the number of memoized inputs.
func (t *Tokenizer) Len() int {
	if t.cache == nil {
		return 0
	}
	return t.cache.Len()
}

func (t *Tokenizer) lemmas(text string) (tokens []string, err error) {
	if t.backend == nil {
		return nil, fmt.Errorf("%w: no backend", internalerr.ErrTokenization)
	}
	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("%w: backend panic: %v", internalerr.ErrTokenization, r)
		}
	}()

	tokens, err = t.backend.Lemmas(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrTokenization, err)
	}
	return tokens, nil
}

// Whitespace is a Backend that splits on Unicode whitespace. It performs no
// lemmatization and is meant for tests and non-Japanese deployments.
type Whitespace struct{}

// Lemmas implements Backend.
func (Whitespace) Lemmas(text string) ([]string, error) {
	return strings.Fields(text), nil
}
