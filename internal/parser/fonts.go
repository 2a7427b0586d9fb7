package parser

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// numberedHeading matches numbered section titles such as
// "CHAPTER 3 METHODS", "2 Related Work" or "3.1.2 Ablation Study".
var numberedHeading = regexp.MustCompile(`^(CHAPTER\s+\d+|\d{1,2}(?:\.\d{1,2}){0,3})[.)]?\s+([A-Z][\w\s,:()&-]*)$`)

// NumberingDepth returns the hierarchy depth implied by a numbered
// heading ("2 Background" -> 1, "3.1.2 Ablation" -> 3), capped at
// maxHeadingLevels, or 0 when the line is not a numbered heading.
func NumberingDepth(line string) int {
	m := numberedHeading.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0
	}
	if strings.HasPrefix(m[1], "CHAPTER") {
		return 1
	}
	depth := strings.Count(m[1], ".") + 1
	if depth > maxHeadingLevels {
		depth = maxHeadingLevels
	}
	return depth
}

// StripNumbering removes a numbered-heading prefix, returning the bare
// title ("3.1 Results" -> "Results"). Unnumbered lines pass through.
func StripNumbering(line string) string {
	m := numberedHeading.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(m[2])
}

// QuantizeSize buckets font sizes to half points so near-identical
// sizes rank as one level.
func QuantizeSize(s float64) float64 {
	return math.Round(s*2) / 2
}

// FontStats accumulates character-weighted font size frequencies for
// one document.
type FontStats struct {
	weights map[float64]int
}

func NewFontStats() *FontStats {
	return &FontStats{weights: make(map[float64]int)}
}

// Add records chars characters rendered at the given size.
func (s *FontStats) Add(size float64, chars int) {
	if size <= 0 || chars <= 0 {
		return
	}
	s.weights[QuantizeSize(size)] += chars
}

func (s *FontStats) Empty() bool { return len(s.weights) == 0 }

// BodySize returns the dominant font size by character weight. Ties go
// to the smaller size, since body text runs smaller than headings.
func (s *FontStats) BodySize() float64 {
	var best float64
	bestWeight := -1
	for size, w := range s.weights {
		if w > bestWeight || (w == bestWeight && size < best) {
			best, bestWeight = size, w
		}
	}
	if bestWeight < 0 {
		return 0
	}
	return best
}

// RankHeadingSizes assigns levels to the distinct candidate sizes,
// largest first: biggest size -> level 1, next -> 2, and so on. Sizes
// past maxHeadingLevels share the deepest level.
func RankHeadingSizes(sizes []float64) map[float64]int {
	uniq := make(map[float64]bool)
	for _, s := range sizes {
		if s > 0 {
			uniq[QuantizeSize(s)] = true
		}
	}
	distinct := make([]float64, 0, len(uniq))
	for s := range uniq {
		distinct = append(distinct, s)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] > distinct[j] })

	levels := make(map[float64]int, len(distinct))
	for i, s := range distinct {
		lvl := i + 1
		if lvl > maxHeadingLevels {
			lvl = maxHeadingLevels
		}
		levels[s] = lvl
	}
	return levels
}

// IsHeadingCandidate reports whether a line's font size clears the
// heading threshold and its text plausibly is a title.
func IsHeadingCandidate(text string, size, bodySize, delta float64) bool {
	if size <= 0 || bodySize <= 0 {
		return false
	}
	return size >= bodySize+delta && looksLikeTitle(text)
}

// ClassifyLine returns the heading level for a line, or 0 for body
// text. Font-size ranking is the primary signal; a numbered heading
// deepens the level (papers often print "1.2 Methods" in the same face
// as "1 Introduction") or stands alone when fonts give no signal.
func ClassifyLine(text string, size, bodySize, delta float64, sizeLevels map[float64]int) int {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0
	}
	fontLevel := 0
	if IsHeadingCandidate(t, size, bodySize, delta) {
		fontLevel = sizeLevels[QuantizeSize(size)]
	}
	depth := NumberingDepth(t)
	switch {
	case fontLevel == 0 && depth == 0:
		return 0
	case fontLevel == 0:
		return depth
	case depth > fontLevel:
		return depth
	default:
		return fontLevel
	}
}

// looksLikeTitle filters out prose that happens to be set large:
// titles are short, start with a capital or digit, and don't end like
// a sentence.
func looksLikeTitle(t string) bool {
	if t == "" || len(t) > 120 {
		return false
	}
	switch t[len(t)-1] {
	case '.', ',', ';', ':':
		return false
	}
	r := []rune(t)[0]
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}
