package meiyo

import (
	"strings"
	"sync"
	"testing"

	"github.com/cognicore/meiyo/pkg/meiyo/analysis"
	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
	"github.com/cognicore/meiyo/pkg/meiyo/evalcache"
	"github.com/cognicore/meiyo/pkg/meiyo/normalize"
	"github.com/cognicore/meiyo/pkg/meiyo/tokenize"
)

var testTerms = map[string][]string{
	"insults":    {"バカ", "アホ", "クズ"},
	"defamation": {"詐欺師"},
	"names":      {"山田"},
}

// recordingCache counts hits so tests can tell cached answers apart.
// onGet, when set, runs once before the first lookup.
type recordingCache struct {
	mu    sync.Mutex
	fifo  *evalcache.FIFO[Result]
	hits  int
	onGet func()
}

func newRecordingCache() *recordingCache {
	return &recordingCache{fifo: evalcache.NewFIFO[Result](16)}
}

func (c *recordingCache) Get(key string) (Result, bool) {
	c.mu.Lock()
	hook := c.onGet
	c.onGet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	r, ok := c.fifo.Get(key)
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}
	return r, ok
}

func (c *recordingCache) Put(key string, r Result) { c.fifo.Put(key, r) }
func (c *recordingCache) Purge()                   { c.fifo.Purge() }

func newTestEngine(t *testing.T, cache ResultCache) *Engine {
	t.Helper()
	pipeline := analysis.NewPipeline(normalize.New(), tokenize.New(tokenize.Whitespace{}, 100))
	e := New(Options{Pipeline: pipeline, Cache: cache})
	e.Swap(e.SnapshotFrom(testTerms, []string{"ばか正直"}, []string{"田中", "佐藤"}))
	return e
}

func TestScenarios(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		name  string
		input string
		want  Verdict
	}{
		{"neutral sentence", "普通の文章です", Clean},
		{"violent imperative", "死ね", FlaggedViolence},
		{"surname with insult", "田中はバカだ", FlaggedNamedTarget},
		{"pronoun then organization", "あの人は詐欺グループの一員だ", FlaggedPersonalAccusation},
		{"whitelisted phrase only", "ばか正直", Clean},
		{"insult alone", "本当にクズだな", FlaggedDictionary},
		{"harassment keyword", "さっさと消えろ", FlaggedHarassment},
		{"threat keyword", "覚えてろよ", FlaggedThreat},
		{"exclamation emphasis", "いい加減にして!!!!", FlaggedContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.input)
			if got.Verdict != tt.want {
				t.Errorf("Evaluate(%q) = %s (%s), want %s", tt.input, got.Verdict, got.Detail, tt.want)
			}
			if !strings.HasSuffix(got.Detail, Disclaimer) {
				t.Errorf("detail should end with the disclaimer: %q", got.Detail)
			}
		})
	}
}

func TestNamedTargetDetailNamesBoth(t *testing.T) {
	e := newTestEngine(t, nil)
	r := e.Evaluate("田中はバカだ")
	if !strings.Contains(r.Detail, "田中") || !strings.Contains(r.Detail, "バカ") {
		t.Errorf("detail should name surname and term: %q", r.Detail)
	}
	if len(r.Terms) != 2 || r.Terms[0] != "田中" || r.Terms[1] != "バカ" {
		t.Errorf("Terms = %v, want [田中 バカ]", r.Terms)
	}
}

func TestAccusationIndependentOfDictionary(t *testing.T) {
	e := New(Options{})
	for _, input := range []string{"あの人は詐欺グループの一員だ", "暴力団とつながっているのはお前だ"} {
		if r := e.Evaluate(input); r.Verdict != FlaggedPersonalAccusation {
			t.Errorf("Evaluate(%q) = %s, want %s", input, r.Verdict, FlaggedPersonalAccusation)
		}
	}
}

func TestAccusationOutranksDictionary(t *testing.T) {
	e := newTestEngine(t, nil)
	if r := e.Evaluate("お前は暴力団のバカだ"); r.Verdict != FlaggedPersonalAccusation {
		t.Errorf("verdict = %s, want %s", r.Verdict, FlaggedPersonalAccusation)
	}
}

func TestSecondCallServedFromCache(t *testing.T) {
	cache := newRecordingCache()
	e := newTestEngine(t, cache)

	first := e.Evaluate("田中はバカだ")
	second := e.Evaluate("田中はバカだ")
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
	if first.Verdict != second.Verdict || first.Detail != second.Detail {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestWhitelistPrecedence(t *testing.T) {
	e := newTestEngine(t, nil)

	// Without the whitelist the same text is flagged.
	bare := e.SnapshotFrom(testTerms, nil, nil)
	if r := e.EvaluateWith("ばか正直", bare); r.Verdict != FlaggedDictionary {
		t.Fatalf("unwhitelisted verdict = %s, want %s", r.Verdict, FlaggedDictionary)
	}

	// A whitelist entry identical to a dictionary term never triggers.
	snap := e.SnapshotFrom(testTerms, []string{"アホ"}, nil)
	if r := e.EvaluateWith("アホ", snap); r.Verdict != Clean {
		t.Errorf("whitelisted term verdict = %s, want clean", r.Verdict)
	}
	if r := e.EvaluateWith("ｱﾎ", snap); r.Verdict != Clean {
		t.Errorf("whitelisted term in half-width verdict = %s, want clean", r.Verdict)
	}
}

func TestNormalizationInvariance(t *testing.T) {
	e := newTestEngine(t, nil)
	variants := []string{"ﾊﾞｶだな", "バカだな", "ばかだな"}
	for _, v := range variants {
		if r := e.Evaluate(v); r.Verdict != FlaggedDictionary {
			t.Errorf("Evaluate(%q) = %s, want %s", v, r.Verdict, FlaggedDictionary)
		}
	}
	if a, b := e.Evaluate("ふざけるな！！！！"), e.Evaluate("ふざけるな!!!!"); a.Verdict != b.Verdict {
		t.Errorf("full-width and half-width marks differ: %s vs %s", a.Verdict, b.Verdict)
	}
}

func TestSurnameAloneIsClean(t *testing.T) {
	e := newTestEngine(t, nil)
	for _, input := range []string{"田中さん、こんにちは", "佐藤", "山田さんの家"} {
		if r := e.Evaluate(input); r.Verdict != Clean {
			t.Errorf("Evaluate(%q) = %s, want clean", input, r.Verdict)
		}
	}
}

func TestSurnameDoesNotEscalateRules(t *testing.T) {
	e := newTestEngine(t, nil)
	if r := e.Evaluate("田中は死ね"); r.Verdict != FlaggedViolence {
		t.Errorf("verdict = %s, want %s", r.Verdict, FlaggedViolence)
	}
}

func TestNamesCategoryActsAsSurname(t *testing.T) {
	e := newTestEngine(t, nil)
	if r := e.Evaluate("山田はクズ"); r.Verdict != FlaggedNamedTarget {
		t.Errorf("verdict = %s, want %s", r.Verdict, FlaggedNamedTarget)
	}
}

func TestSwapInvalidatesCachedVerdicts(t *testing.T) {
	e := newTestEngine(t, nil)
	if r := e.Evaluate("このクソが"); r.Verdict != Clean {
		t.Fatalf("verdict before swap = %s, want clean", r.Verdict)
	}

	e.Swap(e.SnapshotFrom(map[string][]string{"insults": {"クソ"}}, nil, nil))
	if r := e.Evaluate("このクソが"); r.Verdict != FlaggedDictionary {
		t.Errorf("verdict after swap = %s, want %s", r.Verdict, FlaggedDictionary)
	}
}

func TestSwapDuringEvaluationKeepsOldVerdictOut(t *testing.T) {
	cache := newRecordingCache()
	e := newTestEngine(t, cache)

	// The swap lands after the snapshot was loaded but before judging.
	cache.onGet = func() {
		e.Swap(e.SnapshotFrom(map[string][]string{"insults": {"クソ"}}, nil, nil))
	}
	if r := e.Evaluate("このクソが"); r.Verdict != Clean {
		t.Fatalf("in-flight verdict = %s, want clean from the old snapshot", r.Verdict)
	}

	if r := e.Evaluate("このクソが"); r.Verdict != FlaggedDictionary {
		t.Errorf("verdict after swap = %s, want %s", r.Verdict, FlaggedDictionary)
	}
	if cache.hits != 0 {
		t.Errorf("hits = %d, want 0", cache.hits)
	}
}

func TestEvaluateWithKeepsSnapshotsApart(t *testing.T) {
	cache := newRecordingCache()
	e := newTestEngine(t, cache)

	other := e.SnapshotFrom(map[string][]string{"insults": {"ボケ"}}, nil, nil)
	for i := 0; i < 2; i++ {
		if r := e.EvaluateWith("このボケ", other); r.Verdict != FlaggedDictionary {
			t.Fatalf("verdict = %s, want %s", r.Verdict, FlaggedDictionary)
		}
	}
	if cache.hits != 1 {
		t.Errorf("hits = %d, want 1", cache.hits)
	}
	if r := e.Evaluate("このボケ"); r.Verdict != Clean {
		t.Errorf("published snapshot verdict = %s, want clean", r.Verdict)
	}
	if r := e.EvaluateWith("何もない", nil); r.Verdict != Clean {
		t.Errorf("nil snapshot verdict = %s, want clean", r.Verdict)
	}
}

func TestWhitelistDoesNotHideRules(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Swap(e.SnapshotFrom(testTerms, []string{"お前さん", "死ね死ね団"}, []string{"田中"}))

	cases := []struct {
		text string
		want Verdict
	}{
		{"お前さんは暴力団", FlaggedPersonalAccusation},
		{"死ね死ね団", FlaggedViolence},
		{"お前さん", Clean},
	}
	for _, tc := range cases {
		if r := e.Evaluate(tc.text); r.Verdict != tc.want {
			t.Errorf("%q: verdict = %s, want %s", tc.text, r.Verdict, tc.want)
		}
	}
}

type panickingCache struct{}

func (panickingCache) Get(string) (Result, bool) { panic("boom") }
func (panickingCache) Put(string, Result)        {}

func TestPanicRecoversToClean(t *testing.T) {
	e := New(Options{Cache: panickingCache{}})
	r := e.Evaluate("死ね")
	if r.Verdict != Clean || r.Detail != "" {
		t.Errorf("Evaluate = %+v, want clean with empty detail", r)
	}
}

func TestEmptyInput(t *testing.T) {
	e := newTestEngine(t, nil)
	if r := e.Evaluate(""); r.Verdict != Clean {
		t.Errorf("empty input verdict = %s, want clean", r.Verdict)
	}
}

func TestConcurrentEvaluateAndSwap(t *testing.T) {
	e := newTestEngine(t, nil)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if r := e.Evaluate("田中はバカだ"); !r.Flagged() {
					t.Errorf("unexpected verdict %s", r.Verdict)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		e.Swap(e.SnapshotFrom(testTerms, nil, []string{"田中"}))
	}
	wg.Wait()
}

func TestResultFlagged(t *testing.T) {
	if (Result{Verdict: Clean}).Flagged() || (Result{}).Flagged() {
		t.Error("clean and zero results are not flagged")
	}
	if !(Result{Verdict: FlaggedThreat}).Flagged() {
		t.Error("threat result should be flagged")
	}
	if len(Verdicts) != 8 || Verdicts[len(Verdicts)-1] != Clean {
		t.Errorf("Verdicts = %v", Verdicts)
	}
}

func TestDetailTruncatesLongHitLists(t *testing.T) {
	terms := []string{"あか", "いか", "うか", "えか", "おか", "かか", "きか"}
	e := New(Options{})
	snap := e.SnapshotFrom(map[string][]string{"ambiguous": terms}, nil, nil)
	r := e.EvaluateWith("あかいかうかえかおかかかきか", snap)
	if r.Verdict != FlaggedDictionary {
		t.Fatalf("verdict = %s", r.Verdict)
	}
	if !strings.Contains(r.Detail, "ほか2件") {
		t.Errorf("detail should summarize the overflow: %q", r.Detail)
	}
	if len(r.Terms) != 7 {
		t.Errorf("Terms should keep every hit, got %d", len(r.Terms))
	}
}

var _ ResultCache = (*evalcache.FIFO[Result])(nil)
var _ ResultCache = (*evalcache.Tiered[Result])(nil)
var _ Purger = (*evalcache.Tiered[Result])(nil)
var _ dictionary.Preparer = (*analysis.Pipeline)(nil)
