// Package dictionary holds the read-only term snapshot consulted by the
// evaluation engine: the offensive-term list, the whitelist and the surname
// list.
//
// The package performs no I/O. Loaders hand it already-parsed collections,
// and it flattens categories into one deduplicated slice of entries that
// share a single normalized shape.
//
// A Snapshot is immutable once built. Refreshing data means building a new
// Snapshot and publishing it through a Holder.
package dictionary

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"github.com/oklog/ulid/v2"
)

// Category names the group a term was listed under.
type Category string

// Known categories, in the order they are flattened.
const (
	Insults    Category = "insults"
	Defamation Category = "defamation"
	Harassment Category = "harassment"
	Threats    Category = "threats"
	Ambiguous  Category = "ambiguous"

	// Names lists personal names. Terms under it become surnames, never
	// offensive terms.
	Names Category = "names"

	// Uncategorized is used for flat term lists.
	Uncategorized Category = "terms"
)

var categoryOrder = []Category{Insults, Defamation, Harassment, Threats, Ambiguous}

// Entry is one offensive term.
type Entry struct {
	Term       string   // as listed in the source
	Normalized string   // canonical form used for matching
	Tokens     []string // lemma sequence; empty when not pre-tokenized
	Category   Category // first category the term appeared under
}

// Source is the parsed content handed over by a loader.
type Source struct {
	Terms     map[string][]string // category -> terms
	Whitelist []string
	Surnames  []string
}

// Preparer normalizes and lemmatizes terms the same way evaluated text is.
type Preparer interface {
	Normalize(text string) string
	Tokenize(normalized string) []string
}

// Snapshot is an immutable view of the dictionary data.
type Snapshot struct {
	version     string
	fingerprint string
	entries     []Entry
	whitelist   map[string]struct{}
	surnames    []string

	// phrases is the whitelist ordered longest first for masking.
	phrases []string

	// ahocorasick matchers keep per-scan state, so scans are serialized.
	mu          sync.Mutex
	surnameScan *ahocorasick.Matcher
	phraseScan  *ahocorasick.Matcher
}

// NewSnapshot flattens src into a Snapshot. prep may be nil, in which case
// terms are only trimmed and entries carry no tokens.
func NewSnapshot(src Source, prep Preparer) *Snapshot {
	s := &Snapshot{
		version:   ulid.Make().String(),
		whitelist: make(map[string]struct{}),
	}

	normalize := func(v string) string {
		v = strings.TrimSpace(v)
		if prep != nil {
			v = prep.Normalize(v)
		}
		return v
	}

	seenSurname := make(map[string]struct{})
	addSurname := func(raw string) {
		n := normalize(raw)
		if n == "" {
			return
		}
		if _, ok := seenSurname[n]; ok {
			return
		}
		seenSurname[n] = struct{}{}
		s.surnames = append(s.surnames, n)
	}

	for _, name := range src.Surnames {
		addSurname(name)
	}

	seenTerm := make(map[string]struct{})
	for _, cat := range orderedCategories(src.Terms) {
		for _, raw := range src.Terms[cat] {
			if Category(cat) == Names {
				addSurname(raw)
				continue
			}
			n := normalize(raw)
			if n == "" {
				continue
			}
			if _, ok := seenTerm[n]; ok {
				continue
			}
			seenTerm[n] = struct{}{}

			entry := Entry{
				Term:       strings.TrimSpace(raw),
				Normalized: n,
				Category:   Category(cat),
			}
			if prep != nil {
				entry.Tokens = prep.Tokenize(n)
			}
			s.entries = append(s.entries, entry)
		}
	}

	for _, w := range src.Whitelist {
		n := normalize(w)
		if n == "" {
			continue
		}
		if _, ok := s.whitelist[n]; ok {
			continue
		}
		s.whitelist[n] = struct{}{}
		s.phrases = append(s.phrases, n)
	}
	sort.SliceStable(s.phrases, func(i, j int) bool {
		return utf8.RuneCountInString(s.phrases[i]) > utf8.RuneCountInString(s.phrases[j])
	})

	if len(s.surnames) > 0 {
		s.surnameScan = ahocorasick.NewStringMatcher(s.surnames)
	}
	if len(s.phrases) > 0 {
		s.phraseScan = ahocorasick.NewStringMatcher(s.phrases)
	}
	s.fingerprint = s.digest()

	return s
}

// digest hashes the prepared contents. Whitelist and surnames are sorted
// because their order does not affect matching.
func (s *Snapshot) digest() string {
	h := sha256.New()
	field := func(v string) {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	for _, e := range s.entries {
		field(string(e.Category))
		field(e.Normalized)
		field(strings.Join(e.Tokens, "\x1f"))
	}
	field("\x1ewhitelist")
	for _, w := range sortedCopy(s.phrases) {
		field(w)
	}
	field("\x1esurnames")
	for _, n := range sortedCopy(s.surnames) {
		field(n)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// Empty returns a snapshot with no data.
func Empty() *Snapshot {
	return NewSnapshot(Source{}, nil)
}

// orderedCategories returns the known categories first, then the rest
// alphabetically, so flattening is deterministic.
func orderedCategories(terms map[string][]string) []string {
	out := make([]string, 0, len(terms))
	known := make(map[string]struct{}, len(categoryOrder))
	for _, c := range categoryOrder {
		known[string(c)] = struct{}{}
		if _, ok := terms[string(c)]; ok {
			out = append(out, string(c))
		}
	}
	var rest []string
	for c := range terms {
		if _, ok := known[c]; !ok {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Version identifies the snapshot. Every snapshot gets a fresh value.
func (s *Snapshot) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// Fingerprint is a digest of the prepared contents. Snapshots built from the
// same data with the same preparation share a fingerprint, in any process.
func (s *Snapshot) Fingerprint() string {
	if s == nil {
		return ""
	}
	return s.fingerprint
}

// OffensiveTerms returns the flattened, deduplicated term list.
// Callers must not modify the returned slice.
func (s *Snapshot) OffensiveTerms() []Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

// Whitelist returns the normalized whitelist set.
// Callers must not modify the returned map.
func (s *Snapshot) Whitelist() map[string]struct{} {
	if s == nil {
		return nil
	}
	return s.whitelist
}

// Surnames returns the normalized surname list.
func (s *Snapshot) Surnames() []string {
	if s == nil {
		return nil
	}
	return s.surnames
}

// IsWhitelisted reports whether normalized is a whitelist entry.
func (s *Snapshot) IsWhitelisted(normalized string) bool {
	if s == nil {
		return false
	}
	_, ok := s.whitelist[normalized]
	return ok
}

// FindSurnames returns the surnames contained in normalized, in list order.
// Containment is plain substring matching.
func (s *Snapshot) FindSurnames(normalized string) []string {
	if s == nil || s.surnameScan == nil || normalized == "" {
		return nil
	}

	s.mu.Lock()
	hits := s.surnameScan.Match([]byte(normalized))
	s.mu.Unlock()

	if len(hits) == 0 {
		return nil
	}
	sort.Ints(hits)
	out := make([]string, 0, len(hits))
	for _, idx := range hits {
		out = append(out, s.surnames[idx])
	}
	return out
}

// MaskWhitelisted blanks every whitelisted phrase found in normalized so
// that terms inside those phrases cannot match. Longer phrases are masked
// first.
func (s *Snapshot) MaskWhitelisted(normalized string) string {
	if s == nil || s.phraseScan == nil || normalized == "" {
		return normalized
	}

	s.mu.Lock()
	hits := s.phraseScan.Match([]byte(normalized))
	s.mu.Unlock()

	if len(hits) == 0 {
		return normalized
	}
	// phrases is sorted longest first, so index order is masking order.
	sort.Ints(hits)
	out := normalized
	for _, idx := range hits {
		out = strings.ReplaceAll(out, s.phrases[idx], " ")
	}
	return out
}

// Stats summarizes snapshot contents.
type Stats struct {
	Version       string
	Terms         int
	PerCategory   map[Category]int
	Tokenized     int
	WhitelistSize int
	Surnames      int
}

// Stats returns statistics about the snapshot.
func (s *Snapshot) Stats() Stats {
	st := Stats{PerCategory: make(map[Category]int)}
	if s == nil {
		return st
	}
	st.Version = s.version
	st.Terms = len(s.entries)
	st.WhitelistSize = len(s.whitelist)
	st.Surnames = len(s.surnames)
	for _, e := range s.entries {
		st.PerCategory[e.Category]++
		if len(e.Tokens) > 0 {
			st.Tokenized++
		}
	}
	return st
}
