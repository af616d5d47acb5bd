// Package normalize canonicalizes Japanese script variants so that the same
// word compares equal however it was typed.
//
// The direction is fixed: ASCII letters and digits end up half-width and lower
// case, kana ends up full-width hiragana. Kanji are kept unless a Reader is
// configured, in which case segments with a known reading are replaced by it.
package normalize

import (
	"strings"
	"unicode"

	"github.com/kotaroooo0/gojaconv/jaconv"
	"golang.org/x/text/unicode/norm"
)

// Reader returns the katakana reading of text. Segments without a reading
// must be returned unchanged.
type Reader interface {
	Reading(text string) string
}

// Normalizer converts text to its canonical form.
type Normalizer struct {
	reader Reader
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithKanjiReading enables kanji-to-kana conversion through r.
func WithKanjiReading(r Reader) Option {
	return func(n *Normalizer) {
		n.reader = r
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the canonical form of text.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	// NFKC folds full-width ASCII to half-width and half-width katakana
	// (including separate voiced marks) to composed full-width katakana.
	out := norm.NFKC.String(text)
	out = lowerASCII(out)

	if n != nil && n.reader != nil && hasHan(out) {
		out = n.reader.Reading(out)
	}

	return jaconv.KatakanaToHiragana(out)
}

var defaultNormalizer = New()

// String normalizes text without kanji reading.
func String(text string) string {
	return defaultNormalizer.Normalize(text)
}

// All normalizes every element of in, dropping results that are blank.
func (n *Normalizer) All(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = n.Normalize(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func lowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
