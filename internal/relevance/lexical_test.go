package relevance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSimilarity_TitleContainedInQuery(t *testing.T) {
	s := NewStringSimilarity()

	scores, err := s.Score(context.Background(), "what is in the results section", []string{"Results", "Introduction"})

	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 1.0, scores[0])
	assert.Less(t, scores[1], 0.55)
}

func TestStringSimilarity_MultiWordTitle(t *testing.T) {
	s := NewStringSimilarity()

	scores, err := s.Score(context.Background(), "experimental setup details", []string{"Experimental Setup"})

	require.NoError(t, err)
	assert.Equal(t, 1.0, scores[0])
}

func TestStringSimilarity_ToleratesTypos(t *testing.T) {
	s := NewStringSimilarity()

	scores, err := s.Score(context.Background(), "methodolgy", []string{"Methodology"})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, scores[0], 0.8)
}

func TestStringSimilarity_UnrelatedTitleScoresLow(t *testing.T) {
	s := NewStringSimilarity()

	scores, err := s.Score(context.Background(), "quantum entanglement hardware", []string{"References"})

	require.NoError(t, err)
	assert.Less(t, scores[0], 0.5)
}

func TestStringSimilarity_EmptyInputs(t *testing.T) {
	s := NewStringSimilarity()

	scores, err := s.Score(context.Background(), "", []string{"Results"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, scores)

	scores, err = s.Score(context.Background(), "results", []string{"", "   "})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestStringSimilarity_Deterministic(t *testing.T) {
	s := NewStringSimilarity()
	query := "what does the ablation study show"
	titles := []string{"Ablation", "Results", "Background"}

	first, err := s.Score(context.Background(), query, titles)
	require.NoError(t, err)
	second, err := s.Score(context.Background(), query, titles)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStringSimilarity_Name(t *testing.T) {
	assert.Equal(t, "string-similarity", NewStringSimilarity().Name())
}

func TestNormalize_CollapsesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, "related work", Normalize("  Related \t WORK \n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestCleanTokens_RemovesStopWords(t *testing.T) {
	assert.Equal(t, []string{"introduction"}, CleanTokens("What is the Introduction"))
	assert.Empty(t, CleanTokens("the of and"))
}

func TestQueryKeywords_KeepsContentTokens(t *testing.T) {
	kept := QueryKeywords("compare the algorithms")

	require.NotEmpty(t, kept)
	assert.Contains(t, kept, "algorithms")
	assert.NotContains(t, kept, "the")
}

func TestQueryKeywords_EmptyQuery(t *testing.T) {
	assert.Empty(t, QueryKeywords(""))
	assert.Empty(t, QueryKeywords("the of and"))
}
