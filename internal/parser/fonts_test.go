package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberingDepth(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"1 Introduction", 1},
		{"2. Related Work", 1},
		{"3.1 Experimental Setup", 2},
		{"3.1.2 Ablation Study", 3},
		{"10.2.1.4 Deep Nesting", 3}, // capped
		{"CHAPTER 5 RESULTS", 1},
		{"CHAPTER 12 A Longer Title", 1},
		{"plain body text", 0},
		{"1.2 lowercase title", 0},
		{"3.1", 0},
		{"1999 was a good year for this.", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumberingDepth(tt.line), "line=%q", tt.line)
	}
}

func TestStripNumbering(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"3.1 Results", "Results"},
		{"CHAPTER 2 Background", "Background"},
		{"Introduction", "Introduction"},
		{"  4 Discussion  ", "Discussion"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripNumbering(tt.line), "line=%q", tt.line)
	}
}

func TestFontStats_BodySizeIsDominantWeight(t *testing.T) {
	s := NewFontStats()
	s.Add(10.0, 5000) // body
	s.Add(14.0, 40)   // section headings
	s.Add(18.0, 12)   // title

	assert.InDelta(t, 10.0, s.BodySize(), 1e-9)
}

func TestFontStats_TieGoesToSmallerSize(t *testing.T) {
	s := NewFontStats()
	s.Add(10.0, 100)
	s.Add(12.0, 100)

	assert.InDelta(t, 10.0, s.BodySize(), 1e-9)
}

func TestFontStats_QuantizesNearIdenticalSizes(t *testing.T) {
	s := NewFontStats()
	s.Add(10.1, 50)
	s.Add(9.9, 50)

	assert.InDelta(t, 10.0, s.BodySize(), 1e-9)
	assert.False(t, s.Empty())
}

func TestRankHeadingSizes_LargestFirst(t *testing.T) {
	levels := RankHeadingSizes([]float64{14, 18, 14, 12, 18})

	assert.Equal(t, 1, levels[18])
	assert.Equal(t, 2, levels[14])
	assert.Equal(t, 3, levels[12])
}

func TestRankHeadingSizes_DeepSizesShareLastLevel(t *testing.T) {
	levels := RankHeadingSizes([]float64{20, 18, 16, 14, 12})

	assert.Equal(t, 1, levels[20])
	assert.Equal(t, 2, levels[18])
	assert.Equal(t, 3, levels[16])
	assert.Equal(t, 3, levels[14])
	assert.Equal(t, 3, levels[12])
}

func TestClassifyLine_FontRankingPrimary(t *testing.T) {
	sizeLevels := map[float64]int{18: 1, 14: 2}

	assert.Equal(t, 1, ClassifyLine("Results", 18, 10, 0.9, sizeLevels))
	assert.Equal(t, 2, ClassifyLine("Ablation", 14, 10, 0.9, sizeLevels))
	assert.Equal(t, 0, ClassifyLine("ordinary body text at body size", 10, 10, 0.9, sizeLevels))
}

func TestClassifyLine_NumberingDeepensSizeTies(t *testing.T) {
	// Both headings share a font size, so the numbering carries the depth.
	sizeLevels := map[float64]int{14: 1}

	assert.Equal(t, 1, ClassifyLine("1 Introduction", 14, 10, 0.9, sizeLevels))
	assert.Equal(t, 2, ClassifyLine("1.2 Methods", 14, 10, 0.9, sizeLevels))
}

func TestClassifyLine_NumberingAloneSuffices(t *testing.T) {
	// Body-sized but numbered: still a heading (plain-text documents).
	assert.Equal(t, 2, ClassifyLine("3.1 Experimental Setup", 10, 10, 0.9, map[float64]int{}))
	assert.Equal(t, 2, ClassifyLine("3.1 Experimental Setup", 0, 0, 0.9, nil))
}

func TestClassifyLine_RejectsProseSetLarge(t *testing.T) {
	sizeLevels := map[float64]int{16: 1}

	// Ends like a sentence: pull quotes, not headings.
	assert.Equal(t, 0, ClassifyLine("This result was surprising to us.", 16, 10, 0.9, sizeLevels))
	assert.Equal(t, 0, ClassifyLine("", 16, 10, 0.9, sizeLevels))
}

func TestIsHeadingCandidate_ThresholdRelativeToBody(t *testing.T) {
	assert.True(t, IsHeadingCandidate("Methods", 11.0, 10.0, 0.9))
	assert.False(t, IsHeadingCandidate("Methods", 10.5, 10.0, 0.9))
	assert.False(t, IsHeadingCandidate("Methods", 0, 10.0, 0.9))
	assert.False(t, IsHeadingCandidate("Methods", 12.0, 0, 0.9))
}
