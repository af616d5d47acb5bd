// Package meiyo screens short Japanese texts for defamation, insults,
// harassment, threats and accusations tying a person to a criminal
// organization.
//
// Engine is the entry point. It normalizes the text, consults the keyword
// rules and the current dictionary snapshot in a fixed precedence order and
// returns a Verdict with a human-readable detail. Verdicts are advisory.
package meiyo

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cognicore/meiyo/pkg/meiyo/analysis"
	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
	"github.com/cognicore/meiyo/pkg/meiyo/evalcache"
	"github.com/cognicore/meiyo/pkg/meiyo/match"
	"github.com/cognicore/meiyo/pkg/meiyo/rules"
)

// Verdict is the categorical outcome of an evaluation.
type Verdict string

const (
	Clean                     Verdict = "clean"
	FlaggedPersonalAccusation Verdict = "flagged_personal_accusation"
	FlaggedNamedTarget        Verdict = "flagged_named_target"
	FlaggedDictionary         Verdict = "flagged_dictionary"
	FlaggedViolence           Verdict = "flagged_violence"
	FlaggedHarassment         Verdict = "flagged_harassment"
	FlaggedThreat             Verdict = "flagged_threat"
	FlaggedContext            Verdict = "flagged_context"
)

// Verdicts lists every verdict in precedence order, Clean last.
var Verdicts = []Verdict{
	FlaggedPersonalAccusation,
	FlaggedNamedTarget,
	FlaggedDictionary,
	FlaggedViolence,
	FlaggedHarassment,
	FlaggedThreat,
	FlaggedContext,
	Clean,
}

// Result is the outcome of one evaluation. No score is exposed.
type Result struct {
	Verdict Verdict  `json:"verdict"`
	Detail  string   `json:"detail"`
	Terms   []string `json:"terms,omitempty"`
}

// Flagged reports whether the verdict is anything but Clean.
func (r Result) Flagged() bool {
	return r.Verdict != "" && r.Verdict != Clean
}

// ResultCache memoizes results. Keys combine the snapshot fingerprint with
// the raw input text.
type ResultCache interface {
	Get(key string) (Result, bool)
	Put(key string, r Result)
}

// Purger is implemented by caches that can drop every entry.
type Purger interface {
	Purge()
}

// Options configures an Engine. Nil fields get working defaults.
type Options struct {
	Holder   *dictionary.Holder
	Pipeline *analysis.Pipeline
	Matcher  *match.Matcher
	Rules    *rules.Engine
	Cache    ResultCache
	Logger   *slog.Logger
}

// Engine evaluates texts against the published dictionary snapshot.
// It is safe for concurrent use.
type Engine struct {
	holder   *dictionary.Holder
	pipeline *analysis.Pipeline
	matcher  *match.Matcher
	rules    *rules.Engine
	cache    ResultCache
	logger   *slog.Logger
	closers  []io.Closer
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	e := &Engine{
		holder:   opts.Holder,
		pipeline: opts.Pipeline,
		matcher:  opts.Matcher,
		rules:    opts.Rules,
		cache:    opts.Cache,
		logger:   opts.Logger,
	}
	if e.holder == nil {
		e.holder = dictionary.NewHolder(nil)
	}
	if e.pipeline == nil {
		e.pipeline = analysis.NewPipeline(nil, nil)
	}
	if e.matcher == nil {
		e.matcher = match.New(match.DefaultThresholds())
	}
	if e.rules == nil {
		e.rules = rules.Default()
	}
	if e.cache == nil {
		e.cache = evalcache.NewFIFO[Result](evalcache.DefaultCapacity)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Snapshot returns the currently published dictionary snapshot.
func (e *Engine) Snapshot() *dictionary.Snapshot {
	return e.holder.Load()
}

// SnapshotFrom builds a snapshot prepared with the engine's own pipeline,
// so dictionary terms and evaluated texts share one normalized shape.
func (e *Engine) SnapshotFrom(terms map[string][]string, whitelist, surnames []string) *dictionary.Snapshot {
	return dictionary.NewSnapshot(dictionary.Source{
		Terms:     terms,
		Whitelist: whitelist,
		Surnames:  surnames,
	}, e.pipeline)
}

// Swap publishes snap. Cached verdicts are keyed by snapshot fingerprint,
// so the local cache is purged only to release entries nothing will ask for.
func (e *Engine) Swap(snap *dictionary.Snapshot) {
	e.holder.Store(snap)
	if p, ok := e.cache.(Purger); ok {
		p.Purge()
	}
	e.logger.Info("dictionary snapshot published", "version", e.holder.Load().Version())
}

// Evaluate screens text against the current snapshot.
func (e *Engine) Evaluate(text string) Result {
	return e.evaluate(text, e.holder.Load())
}

// EvaluateWith screens text against an explicit snapshot.
func (e *Engine) EvaluateWith(text string, snap *dictionary.Snapshot) Result {
	if snap == nil {
		snap = dictionary.Empty()
	}
	return e.evaluate(text, snap)
}

func (e *Engine) evaluate(text string, snap *dictionary.Snapshot) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("evaluation panicked", "panic", r)
			res = Result{Verdict: Clean}
		}
	}()

	// The verdict is stored under the snapshot it was judged with, even if
	// a Swap lands in between.
	key := cacheKey(snap, text)
	if r, ok := e.cache.Get(key); ok {
		return r
	}

	res = e.judge(text, snap)
	e.cache.Put(key, res)
	return res
}

func cacheKey(snap *dictionary.Snapshot, text string) string {
	return snap.Fingerprint() + "\x1f" + text
}

// judge runs the precedence chain. The first hit decides the verdict.
func (e *Engine) judge(text string, snap *dictionary.Snapshot) Result {
	a := e.pipeline.Process(text)
	normalized := a.Normalized

	if e.rules.CheckPersonalAccusation(normalized) {
		return Result{Verdict: FlaggedPersonalAccusation, Detail: accusationDetail()}
	}

	// Whitelisted phrases hide dictionary terms and surnames only. The rule
	// checks always see the full text.
	masked := snap.MaskWhitelisted(normalized)
	tokens := a.Tokens
	if masked != normalized {
		tokens = e.pipeline.Tokenize(masked)
	}
	hits := e.matcher.FindAll(masked, tokens, snap.OffensiveTerms(), func(entry dictionary.Entry) bool {
		return snap.IsWhitelisted(entry.Normalized)
	})
	if len(hits) > 0 {
		if surnames := snap.FindSurnames(masked); len(surnames) > 0 {
			return Result{
				Verdict: FlaggedNamedTarget,
				Detail:  namedTargetDetail(surnames, hits),
				Terms:   append(append([]string{}, surnames...), hitTerms(hits)...),
			}
		}
		return Result{
			Verdict: FlaggedDictionary,
			Detail:  dictionaryDetail(hits),
			Terms:   hitTerms(hits),
		}
	}

	if kw, ok := e.rules.CheckViolence(normalized); ok {
		return keywordResult(FlaggedViolence, kw)
	}
	if kw, ok := e.rules.CheckHarassment(normalized); ok {
		return keywordResult(FlaggedHarassment, kw)
	}
	if kw, ok := e.rules.CheckThreat(normalized); ok {
		return keywordResult(FlaggedThreat, kw)
	}

	if n, ok := e.rules.CheckEmphasis(normalized); ok {
		return Result{Verdict: FlaggedContext, Detail: emphasisDetail(n)}
	}

	return Result{Verdict: Clean, Detail: cleanDetail()}
}

func keywordResult(v Verdict, kw string) Result {
	return Result{Verdict: v, Detail: keywordDetail(v, kw), Terms: []string{kw}}
}

func hitTerms(hits []match.Result) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Term
	}
	return out
}

// Disclaimer closes every non-empty detail.
const Disclaimer = "※この判定は自動判定による参考情報であり、法的な正確性を保証するものではありません。"

// maxDetailTerms caps how many matched terms a detail spells out.
const maxDetailTerms = 5

var categoryLabels = map[dictionary.Category]string{
	dictionary.Insults:       "侮辱",
	dictionary.Defamation:    "名誉毀損",
	dictionary.Harassment:    "嫌がらせ",
	dictionary.Threats:       "脅迫",
	dictionary.Ambiguous:     "要注意",
	dictionary.Uncategorized: "辞書登録語",
}

func categoryLabel(c dictionary.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// describeHits renders 「term」（category） pairs.
func describeHits(hits []match.Result) string {
	parts := make([]string, 0, min(len(hits), maxDetailTerms))
	for i, h := range hits {
		if i == maxDetailTerms {
			parts = append(parts, fmt.Sprintf("ほか%d件", len(hits)-maxDetailTerms))
			break
		}
		parts = append(parts, fmt.Sprintf("「%s」（%s）", h.Term, categoryLabel(h.Category)))
	}
	return strings.Join(parts, "、")
}

func quoteAll(items []string) string {
	return "「" + strings.Join(items, "」「") + "」"
}

func accusationDetail() string {
	return "特定の人物を犯罪組織と結び付ける表現が含まれている可能性があります。" +
		"代名詞と組織名の共起にもとづく広めの検出のため、文脈をご確認ください。" + Disclaimer
}

func namedTargetDetail(surnames []string, hits []match.Result) string {
	return fmt.Sprintf("人名%sと問題のある表現%sが同時に含まれています。特定の個人への誹謗中傷にあたる可能性があります。",
		quoteAll(surnames), describeHits(hits)) + Disclaimer
}

func dictionaryDetail(hits []match.Result) string {
	return fmt.Sprintf("問題のある表現%sが含まれています。", describeHits(hits)) + Disclaimer
}

func keywordDetail(v Verdict, kw string) string {
	var kind string
	switch v {
	case FlaggedViolence:
		kind = "暴力的な表現"
	case FlaggedHarassment:
		kind = "嫌がらせにあたる表現"
	case FlaggedThreat:
		kind = "脅迫にあたる表現"
	}
	return fmt.Sprintf("%s「%s」が含まれています。", kind, kw) + Disclaimer
}

func emphasisDetail(n int) string {
	return fmt.Sprintf("感嘆符が%d個含まれており、攻撃的な強調表現の可能性があります。", n) + Disclaimer
}

func cleanDetail() string {
	return "問題となる表現は見つかりませんでした。" + Disclaimer
}
