package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKagomeLemmas(t *testing.T) {
	k, err := NewKagome()
	require.NoError(t, err)

	lemmas, err := k.Lemmas("彼を殴った")
	require.NoError(t, err)
	assert.Contains(t, lemmas, "殴る", "conjugated verb should be reduced to its base form")
	assert.Contains(t, lemmas, "彼")
}

func TestKagomeSkipsWhitespace(t *testing.T) {
	k, err := NewKagome()
	require.NoError(t, err)

	lemmas, err := k.Lemmas("犬 猫")
	require.NoError(t, err)
	for _, l := range lemmas {
		assert.NotEqual(t, " ", l)
	}
}

func TestKagomeReading(t *testing.T) {
	k, err := NewKagome()
	require.NoError(t, err)

	assert.Equal(t, "バカ", k.Reading("馬鹿"))
	assert.Equal(t, "ばか", k.Reading("ばか"), "kana input keeps its surface")
}

func TestKagomeThroughTokenizer(t *testing.T) {
	k, err := NewKagome()
	require.NoError(t, err)

	tok := New(k, DefaultCacheSize)
	first := tok.Tokenize("殴りつけるぞ")
	require.NotEmpty(t, first)
	assert.Equal(t, first, tok.Tokenize("殴りつけるぞ"))
}
