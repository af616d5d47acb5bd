package match

import (
	"testing"

	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 100},
		{"ばか", "ばか", 100},
		{"ばか", "", 0},
		{"ばかやろう", "ばかやろ", 80},
		{"abc", "abd", 67},
		{"ばか", "ばけ", 50},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); got != tt.want {
			t.Errorf("Ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"ばか", "お前はばかだ", 100},
		{"お前はばかだ", "ばか", 100},
		{"くそやろう", "おまえはくそやろーだ", 80},
		{"", "abc", 0},
		{"", "", 100},
	}
	for _, tt := range tests {
		if got := PartialRatio(tt.a, tt.b); got != tt.want {
			t.Errorf("PartialRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatchSubstring(t *testing.T) {
	m := New(DefaultThresholds())
	e := dictionary.Entry{Term: "バカ", Normalized: "ばか", Category: dictionary.Insults}

	r := m.Match("おまえはばかだ", nil, e)
	if !r.Hit || r.Score != 100 || r.Method != MethodSubstring {
		t.Errorf("Match = %+v, want substring hit with score 100", r)
	}
	if r.Term != "バカ" || r.Category != dictionary.Insults {
		t.Errorf("Match should report the listed term and category, got %+v", r)
	}
}

func TestMatchTokenSubset(t *testing.T) {
	m := New(DefaultThresholds())
	e := dictionary.Entry{
		Term:       "ぶんなぐりつけるぞ",
		Normalized: "ぶんなぐりつけるぞ",
		Tokens:     []string{"ぶんなぐりつける", "ぞ"},
	}
	tokens := []string{"あいつ", "を", "ぶんなぐりつけた", "ぞ"}

	r := m.Match("あいつをぶんなぐりつけたぞ", tokens, e)
	if !r.Hit || r.Method != MethodTokens {
		t.Fatalf("Match = %+v, want token hit", r)
	}
	if r.Score != 88 {
		t.Errorf("Score = %d, want 88 (weakest token)", r.Score)
	}
}

func TestMatchShortTokensNeedExactEquality(t *testing.T) {
	m := New(DefaultThresholds())
	e := dictionary.Entry{Term: "ばか", Normalized: "ばか", Tokens: []string{"ばか"}}

	if r := m.Match("ばけ", []string{"ばけ"}, e); r.Hit {
		t.Errorf("short tokens should not fuzzy match: %+v", r)
	}
}

func TestMatchWholeStringFuzzy(t *testing.T) {
	e := dictionary.Entry{Term: "ばかやろう", Normalized: "ばかやろう", Category: dictionary.Insults}

	m := New(DefaultThresholds())
	r := m.Match("ばかやろ", nil, e)
	if !r.Hit || r.Method != MethodFuzzy || r.Score != 80 {
		t.Errorf("Match = %+v, want fuzzy hit with score 80", r)
	}

	strict := DefaultThresholds()
	strict.CategoryThresholds = map[dictionary.Category]int{dictionary.Insults: 90}
	if r := New(strict).Match("ばかやろ", nil, e); r.Hit {
		t.Errorf("category threshold 90 should reject score 80: %+v", r)
	}
}

func TestMatchPartialMode(t *testing.T) {
	th := DefaultThresholds()
	th.Partial = true
	m := New(th)
	e := dictionary.Entry{Term: "くそやろう", Normalized: "くそやろう"}

	r := m.Match("おまえはくそやろーだ", nil, e)
	if !r.Hit || r.Method != MethodFuzzy {
		t.Errorf("partial mode should find near-miss inside longer text: %+v", r)
	}
	if r := New(DefaultThresholds()).Match("おまえはくそやろーだ", nil, e); r.Hit {
		t.Errorf("whole-string mode should not match a long sentence: %+v", r)
	}
}

func TestMatchEmpty(t *testing.T) {
	m := New(Thresholds{})
	if r := m.Match("", nil, dictionary.Entry{Normalized: "ばか"}); r.Hit {
		t.Error("empty text should never match")
	}
	if r := m.Match("ばか", nil, dictionary.Entry{}); r.Hit {
		t.Error("empty term should never match")
	}
	if m.Thresholds().TokenThreshold != 85 {
		t.Error("zero thresholds should fall back to defaults")
	}
}

func TestFindAllOrderingAndSkip(t *testing.T) {
	m := New(DefaultThresholds())
	entries := []dictionary.Entry{
		{Term: "くず", Normalized: "くず"},
		{Term: "ばか", Normalized: "ばか"},
		{Term: "あほ", Normalized: "あほ"},
	}
	hits := m.FindAll("ばかでくずだ", nil, entries, func(e dictionary.Entry) bool {
		return e.Normalized == "あほ"
	})
	if len(hits) != 2 {
		t.Fatalf("FindAll = %+v, want 2 hits", hits)
	}
	if hits[0].Term != "くず" || hits[1].Term != "ばか" {
		t.Errorf("equal scores should keep dictionary order: %+v", hits)
	}

	if hits := m.FindAll("あほ", nil, entries, func(e dictionary.Entry) bool { return true }); hits != nil {
		t.Errorf("skipped entries should never hit: %+v", hits)
	}
}
