package analysis

import (
	"testing"

	"github.com/cognicore/meiyo/pkg/meiyo/normalize"
	"github.com/cognicore/meiyo/pkg/meiyo/tokenize"
)

type katakanaBackend struct{}

// Lemmas returns katakana base forms, as some dictionaries do.
func (katakanaBackend) Lemmas(text string) ([]string, error) {
	return []string{"バカ", "ダ"}, nil
}

func TestPipelineProcess(t *testing.T) {
	p := NewPipeline(normalize.New(), tokenize.New(tokenize.Whitespace{}, 10))

	got := p.Process("ｱｲﾂ は ＢＡＫＡ")
	if got.Normalized != "あいつ は baka" {
		t.Errorf("Normalized = %q", got.Normalized)
	}
	want := []string{"あいつ", "は", "baka"}
	if len(got.Tokens) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got.Tokens, want)
	}
	for i := range want {
		if got.Tokens[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got.Tokens[i], want[i])
		}
	}
}

func TestPipelineNormalizesLemmas(t *testing.T) {
	p := NewPipeline(nil, tokenize.New(katakanaBackend{}, 0))

	got := p.Tokenize("ばかだ")
	if len(got) != 2 || got[0] != "ばか" || got[1] != "だ" {
		t.Errorf("Tokenize = %v, want [ばか だ]", got)
	}
}

func TestPipelineWithoutTokenizer(t *testing.T) {
	p := NewPipeline(nil, nil)

	got := p.Process("テスト")
	if got.Normalized != "てすと" {
		t.Errorf("Normalized = %q, want てすと", got.Normalized)
	}
	if got.Tokens != nil {
		t.Errorf("Tokens = %v, want nil", got.Tokens)
	}
}
