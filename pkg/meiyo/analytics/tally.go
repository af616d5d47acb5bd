// Package analytics aggregates evaluation results over a batch of texts.
package analytics

import (
	"sort"

	"github.com/cognicore/meiyo/pkg/meiyo"
)

// Tally aggregates verdict and term statistics. It is not safe for
// concurrent use.
type Tally struct {
	total      int64
	perVerdict map[meiyo.Verdict]int64
	termDF     map[string]int64
	termVerd   map[string]map[meiyo.Verdict]int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{
		perVerdict: make(map[meiyo.Verdict]int64),
		termDF:     make(map[string]int64),
		termVerd:   make(map[string]map[meiyo.Verdict]int64),
	}
}

// Process consumes one result. A term counts once per result.
func (t *Tally) Process(r meiyo.Result) {
	t.total++
	v := r.Verdict
	if v == "" {
		v = meiyo.Clean
	}
	t.perVerdict[v]++

	seen := make(map[string]struct{}, len(r.Terms))
	for _, term := range r.Terms {
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		t.termDF[term]++
		if t.termVerd[term] == nil {
			t.termVerd[term] = make(map[meiyo.Verdict]int64)
		}
		t.termVerd[term][v]++
	}
}

// Total returns the number of processed results.
func (t *Tally) Total() int64 { return t.total }

// Count returns how many results carried verdict v.
func (t *Tally) Count(v meiyo.Verdict) int64 { return t.perVerdict[v] }

// FlaggedRatio returns the share of results with a non-clean verdict.
func (t *Tally) FlaggedRatio() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.total-t.perVerdict[meiyo.Clean]) / float64(t.total)
}

// TermStat describes how often a term appeared in results.
type TermStat struct {
	Term     string                  `json:"term"`
	Count    int64                   `json:"count"`
	Verdicts map[meiyo.Verdict]int64 `json:"verdicts"`
}

// TopTerms returns the k most frequent terms, ties broken alphabetically.
// k <= 0 returns every term.
func (t *Tally) TopTerms(k int) []TermStat {
	out := make([]TermStat, 0, len(t.termDF))
	for term, c := range t.termDF {
		verdicts := make(map[meiyo.Verdict]int64, len(t.termVerd[term]))
		for v, n := range t.termVerd[term] {
			verdicts[v] = n
		}
		out = append(out, TermStat{Term: term, Count: c, Verdicts: verdicts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Summary is a serializable view of a tally.
type Summary struct {
	Total        int64                   `json:"total"`
	FlaggedRatio float64                 `json:"flagged_ratio"`
	PerVerdict   map[meiyo.Verdict]int64 `json:"per_verdict"`
	TopTerms     []TermStat              `json:"top_terms"`
}

// Summary returns the tally with the k most frequent terms. Every verdict
// appears in PerVerdict, zero counts included.
func (t *Tally) Summary(k int) Summary {
	per := make(map[meiyo.Verdict]int64, len(meiyo.Verdicts))
	for _, v := range meiyo.Verdicts {
		per[v] = t.perVerdict[v]
	}
	return Summary{
		Total:        t.total,
		FlaggedRatio: t.FlaggedRatio(),
		PerVerdict:   per,
		TopTerms:     t.TopTerms(k),
	}
}
