// Package match decides whether a dictionary term occurs in normalized text.
//
// Three passes run in order and the first one that succeeds wins:
// literal substring (score 100), token subset over lemmas, and a whole-string
// similarity ratio. All thresholds are configuration.
package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
)

// Method identifies the pass that produced a hit.
type Method string

const (
	MethodNone      Method = ""
	MethodSubstring Method = "substring"
	MethodTokens    Method = "tokens"
	MethodFuzzy     Method = "fuzzy"
)

// Thresholds tune the fuzzy passes. Scores are on a 0–100 scale.
type Thresholds struct {
	// TokenThreshold is the minimum Ratio for two lemmas to count as equal.
	TokenThreshold int
	// ShortTokenLen is the rune length at or below which lemmas must match
	// exactly.
	ShortTokenLen int
	// WholeThreshold is the minimum whole-string Ratio.
	WholeThreshold int
	// CategoryThresholds override WholeThreshold per category.
	CategoryThresholds map[dictionary.Category]int
	// Partial switches the last pass to PartialRatio against
	// PartialThreshold.
	Partial          bool
	PartialThreshold int
}

// DefaultThresholds returns the thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TokenThreshold:   85,
		ShortTokenLen:    2,
		WholeThreshold:   80,
		PartialThreshold: 75,
	}
}

// Result describes the outcome of matching one term.
type Result struct {
	Hit      bool
	Term     string
	Score    int
	Method   Method
	Category dictionary.Category
}

// Matcher applies the matching policy.
type Matcher struct {
	th Thresholds
}

// New creates a matcher. Zero fields in th fall back to DefaultThresholds.
func New(th Thresholds) *Matcher {
	def := DefaultThresholds()
	if th.TokenThreshold <= 0 {
		th.TokenThreshold = def.TokenThreshold
	}
	if th.ShortTokenLen <= 0 {
		th.ShortTokenLen = def.ShortTokenLen
	}
	if th.WholeThreshold <= 0 {
		th.WholeThreshold = def.WholeThreshold
	}
	if th.PartialThreshold <= 0 {
		th.PartialThreshold = def.PartialThreshold
	}
	return &Matcher{th: th}
}

// Thresholds returns the effective thresholds.
func (m *Matcher) Thresholds() Thresholds {
	return m.th
}

// Match tests a single entry against normalized text and its lemmas.
func (m *Matcher) Match(normalized string, tokens []string, e dictionary.Entry) Result {
	term := e.Normalized
	if term == "" || normalized == "" {
		return Result{}
	}
	hit := func(score int, method Method) Result {
		return Result{Hit: true, Term: e.Term, Score: score, Method: method, Category: e.Category}
	}

	if strings.Contains(normalized, term) {
		return hit(100, MethodSubstring)
	}

	if len(e.Tokens) > 0 && len(tokens) > 0 {
		if score, ok := m.tokenSubset(e.Tokens, tokens); ok {
			return hit(score, MethodTokens)
		}
	}

	if m.th.Partial {
		if score := PartialRatio(term, normalized); score >= m.th.PartialThreshold {
			return hit(score, MethodFuzzy)
		}
		return Result{}
	}
	if score := Ratio(term, normalized); score >= m.wholeThreshold(e.Category) {
		return hit(score, MethodFuzzy)
	}
	return Result{}
}

// FindAll matches every entry that skip does not reject and returns the hits
// ordered by score, ties kept in dictionary order.
func (m *Matcher) FindAll(normalized string, tokens []string, entries []dictionary.Entry, skip func(dictionary.Entry) bool) []Result {
	var hits []Result
	for _, e := range entries {
		if skip != nil && skip(e) {
			continue
		}
		if r := m.Match(normalized, tokens, e); r.Hit {
			hits = append(hits, r)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

// tokenSubset reports whether every term token fuzzily equals some input
// token. The score is the weakest of the best per-token scores.
func (m *Matcher) tokenSubset(termTokens, inputTokens []string) (int, bool) {
	weakest := 100
	for _, tt := range termTokens {
		best := -1
		for _, it := range inputTokens {
			if s, ok := m.tokenEqual(tt, it); ok && s > best {
				best = s
				if best == 100 {
					break
				}
			}
		}
		if best < 0 {
			return 0, false
		}
		weakest = min(weakest, best)
	}
	return weakest, true
}

func (m *Matcher) tokenEqual(a, b string) (int, bool) {
	if a == b {
		return 100, true
	}
	if utf8.RuneCountInString(a) <= m.th.ShortTokenLen || utf8.RuneCountInString(b) <= m.th.ShortTokenLen {
		return 0, false
	}
	s := Ratio(a, b)
	return s, s >= m.th.TokenThreshold
}

func (m *Matcher) wholeThreshold(cat dictionary.Category) int {
	if t, ok := m.th.CategoryThresholds[cat]; ok && t > 0 {
		return t
	}
	return m.th.WholeThreshold
}
