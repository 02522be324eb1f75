package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T) *AnalyzerFactory {
	t.Helper()
	f, err := NewAnalyzerFactory()
	require.NoError(t, err)
	return f
}

func TestAnalysisIsDeterministic(t *testing.T) {
	f := newTestFactory(t)
	inputs := []string{"Strange Love", "東京の夜", "Rock;Jazz", "café au lait"}
	for _, in := range inputs {
		first := f.QueryTokens(FieldTitle, in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, f.QueryTokens(FieldTitle, in))
		}
	}
}

func TestDiacriticAndCaseFolding(t *testing.T) {
	f := newTestFactory(t)
	tokens := f.QueryTokens(FieldTitle, "Café")
	require.Len(t, tokens, 1)
	assert.Equal(t, "cafe", tokens[0])
}

func TestStopWordsDropped(t *testing.T) {
	f := newTestFactory(t)
	tokens := f.QueryTokens(FieldTitle, "the sound of silence")
	assert.Equal(t, []string{"sound", "silence"}, tokens)
}

func TestMorphologicalSegmentationDropsParticles(t *testing.T) {
	f := newTestFactory(t)
	tokens := f.QueryTokens(FieldTitle, "東京の夜")
	assert.Equal(t, []string{"東京", "夜"}, tokens)
}

func TestArtistChainFoldsKatakanaToHiragana(t *testing.T) {
	f := newTestFactory(t)
	tokens := f.QueryTokens(FieldArtist, "ヨルシカ")
	require.Len(t, tokens, 1)
	assert.Equal(t, "よるしか", tokens[0])
}

func TestArtistChainSplitsCredits(t *testing.T) {
	f := newTestFactory(t)
	tokens := f.QueryTokens(FieldArtist, "Nightbird feat. Dawn")
	assert.Equal(t, []string{"nightbird", "dawn"}, tokens)
}

func TestReadingChainMarksTrailingWildcardOnQuerySide(t *testing.T) {
	f := newTestFactory(t)
	qTokens := f.QueryTokens(FieldArtistReading, "queen")
	require.NotEmpty(t, qTokens)
	assert.Equal(t, "queen*", qTokens[len(qTokens)-1])

	iTokens := f.IndexTokens(FieldArtistReading, "queen")
	require.NotEmpty(t, iTokens)
	assert.Equal(t, "queen", iTokens[len(iTokens)-1])
}

func TestReadingChainBigramsIdeographs(t *testing.T) {
	f := newTestFactory(t)
	tokens := f.IndexTokens(FieldArtistReading, "東京都")
	assert.Equal(t, []string{"東京", "京都"}, tokens)
}

// Genre matching is case-sensitive and delimiter-splitting: "Rock;Jazz"
// indexes as two exact spellings, and a lower-cased query does not match
// an upper-cased indexed form.
func TestGenreTokensPinned(t *testing.T) {
	f := newTestFactory(t)
	assert.Equal(t, []string{"Rock", "Jazz"}, f.IndexTokens(FieldGenre, "Rock;Jazz"))
	assert.Equal(t, []string{"Rock"}, f.QueryTokens(FieldGenre, "Rock"))
	assert.NotEqual(t, f.IndexTokens(FieldGenre, "Rock"), f.QueryTokens(FieldGenre, "rock"))
}

func TestGenreTokensStripParentheses(t *testing.T) {
	f := newTestFactory(t)
	assert.Equal(t, []string{"Rock"}, f.IndexTokens(FieldGenre, "(Rock)"))
}

func TestIndexMappingCoversRecordFields(t *testing.T) {
	f := newTestFactory(t)
	for _, c := range Collections() {
		im, err := f.NewIndexMapping(c)
		require.NoError(t, err)
		assert.NotNil(t, im, c.String())
		assert.NotEmpty(t, recordFields(c), c.String())
	}
}
