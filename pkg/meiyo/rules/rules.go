package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/meiyo/pkg/meiyo/match"
	"github.com/cognicore/meiyo/pkg/meiyo/normalize"
)

// Default keyword sets. They are normalized when an Engine is built, so
// they may be written in any script variant.
var (
	DefaultViolence = []string{
		"殺", "死ね", "氏ね", "ぶっころ", "ころす", "ぶん殴", "刺してやる", "刺し殺",
	}
	DefaultHarassment = []string{
		"消え失せろ", "消えろ", "出ていけ", "出て行け", "追い出してやる", "晒してやる",
		"晒し上げ", "住所特定", "つきまとってやる", "きもい", "うざい",
	}
	DefaultThreats = []string{
		"殴りつけるぞ", "殴るぞ", "ただで済むと思うな", "覚えておけ", "覚えてろ",
		"痛い目にあわせ", "家まで行く", "燃やしてやる", "襲ってやる", "後悔させてやる",
	}
	DefaultPronouns = []string{
		"お前", "おまえ", "オマエ", "コイツ", "こいつ", "アイツ", "あいつ", "そいつ",
		"てめえ", "テメエ", "貴様", "きさま", "あの人", "この人", "あの男", "あの女", "奴ら", "奴",
	}
	DefaultOrganizations = []string{
		"反社会的勢力", "反社", "暴力団", "ヤクザ", "やくざ", "詐欺団体", "詐欺グループ",
		"詐欺集団", "犯罪組織", "犯罪集団", "半グレ", "マフィア",
	}
)

// DefaultExclamationLimit is the exclamation-mark count above which a text
// is treated as aggressive emphasis.
const DefaultExclamationLimit = 3

// Config selects keyword sets and limits. Nil slices use the defaults.
type Config struct {
	Violence      []string
	Harassment    []string
	Threats       []string
	Pronouns      []string
	Organizations []string

	// FuzzyThreshold enables partial-ratio containment for keywords longer
	// than two runes. Zero means exact containment only.
	FuzzyThreshold int

	// ExclamationLimit: negative disables the check, zero uses the default.
	ExclamationLimit int
}

// Engine runs the structural heuristics over normalized text.
type Engine struct {
	violence   []string
	harassment []string
	threats    []string
	accusation *regexp.Regexp
	fuzzy      int
	exclaim    int
}

// New builds an engine. Keywords are normalized with n.
func New(cfg Config, n *normalize.Normalizer) *Engine {
	if n == nil {
		n = normalize.New()
	}
	e := &Engine{
		violence:   keywords(n, cfg.Violence, DefaultViolence),
		harassment: keywords(n, cfg.Harassment, DefaultHarassment),
		threats:    keywords(n, cfg.Threats, DefaultThreats),
		fuzzy:      cfg.FuzzyThreshold,
		exclaim:    cfg.ExclamationLimit,
	}
	if e.exclaim == 0 {
		e.exclaim = DefaultExclamationLimit
	}
	e.accusation = accusationPattern(
		keywords(n, cfg.Pronouns, DefaultPronouns),
		keywords(n, cfg.Organizations, DefaultOrganizations),
	)
	return e
}

// Default builds an engine with the default keyword sets.
func Default() *Engine {
	return New(Config{}, nil)
}

func keywords(n *normalize.Normalizer, configured, fallback []string) []string {
	src := configured
	if src == nil {
		src = fallback
	}
	seen := make(map[string]struct{}, len(src))
	out := make([]string, 0, len(src))
	for _, kw := range n.All(src) {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// accusationPattern matches a pronoun and an organization in either order
// with any span between them.
func accusationPattern(pronouns, orgs []string) *regexp.Regexp {
	if len(pronouns) == 0 || len(orgs) == 0 {
		return nil
	}
	p := alternation(pronouns)
	o := alternation(orgs)
	return regexp.MustCompile(`(?s)(?:` + p + `).*(?:` + o + `)|(?:` + o + `).*(?:` + p + `)`)
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// CheckViolence reports the first violence keyword found in normalized.
func (e *Engine) CheckViolence(normalized string) (string, bool) {
	return e.contains(normalized, e.violence)
}

// CheckHarassment reports the first harassment keyword found in normalized.
func (e *Engine) CheckHarassment(normalized string) (string, bool) {
	return e.contains(normalized, e.harassment)
}

// CheckThreat reports the first threat keyword found in normalized.
func (e *Engine) CheckThreat(normalized string) (string, bool) {
	return e.contains(normalized, e.threats)
}

// CheckPersonalAccusation reports whether a second-person or demonstrative
// pronoun co-occurs with a criminal-organization reference. The check is
// intentionally broad: any distance, either order.
func (e *Engine) CheckPersonalAccusation(normalized string) bool {
	if e.accusation == nil || normalized == "" {
		return false
	}
	return e.accusation.MatchString(normalized)
}

// CheckEmphasis reports the number of exclamation marks when it exceeds the
// configured limit. Normalized text carries only ASCII '!'.
func (e *Engine) CheckEmphasis(normalized string) (int, bool) {
	if e.exclaim < 0 {
		return 0, false
	}
	n := strings.Count(normalized, "!")
	return n, n > e.exclaim
}

func (e *Engine) contains(normalized string, kws []string) (string, bool) {
	if normalized == "" {
		return "", false
	}
	for _, kw := range kws {
		if strings.Contains(normalized, kw) {
			return kw, true
		}
	}
	if e.fuzzy <= 0 {
		return "", false
	}
	for _, kw := range kws {
		if utf8.RuneCountInString(kw) <= 2 {
			continue
		}
		if match.PartialRatio(kw, normalized) >= e.fuzzy {
			return kw, true
		}
	}
	return "", false
}
