package relevance

import (
	"context"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/jdkato/prose/v2"
)

const langCode = "en"

// StringSimilarity matches short strings such as section titles
// against a query without any model calls. Exact containment wins
// outright; otherwise tokens are compared pairwise by edit distance
// and the better coverage direction decides.
type StringSimilarity struct{}

func NewStringSimilarity() *StringSimilarity { return &StringSimilarity{} }

func (s *StringSimilarity) Name() string { return "string-similarity" }

func (s *StringSimilarity) Score(_ context.Context, query string, texts []string) ([]float64, error) {
	qNorm := Normalize(query)
	qTokens := QueryKeywords(query)
	scores := make([]float64, len(texts))
	for i, t := range texts {
		scores[i] = similarity(qNorm, qTokens, t)
	}
	return scores, nil
}

func similarity(qNorm string, qTokens []string, text string) float64 {
	tNorm := Normalize(text)
	if qNorm == "" || tNorm == "" {
		return 0
	}
	if strings.Contains(qNorm, tNorm) || strings.Contains(tNorm, qNorm) {
		return 1
	}
	tTokens := CleanTokens(text)
	if len(tTokens) == 0 {
		tTokens = strings.Fields(tNorm)
	}
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return 0
	}
	forward := coverage(tTokens, qTokens)
	backward := coverage(qTokens, tTokens)
	if backward > forward {
		return backward
	}
	return forward
}

// coverage averages, over the tokens of a, the best edit-distance
// similarity to any token of b.
func coverage(a, b []string) float64 {
	total := 0.0
	for _, at := range a {
		best := 0.0
		for _, bt := range b {
			if sim := tokenSimilarity(at, bt); sim > best {
				best = sim
			}
			if best == 1 {
				break
			}
		}
		total += best
	}
	return total / float64(len(a))
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := stopwords.LevenshteinDistance([]byte(a), []byte(b), langCode, false)
	sim := 1 - float64(dist)/float64(longest)
	if sim < 0 {
		return 0
	}
	return sim
}

// Normalize lowercases and collapses whitespace runs.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CleanTokens returns lowercased tokens with stop words removed.
func CleanTokens(s string) []string {
	return strings.Fields(strings.TrimSpace(stopwords.CleanString(s, langCode, false)))
}

// QueryKeywords extracts the content-bearing tokens of a query:
// stop words removed, then part-of-speech filtered down to nouns,
// verbs and adjectives. Falls back to the plain cleaned tokens when
// tagging fails or drops everything.
func QueryKeywords(query string) []string {
	cleaned := strings.ToLower(strings.TrimSpace(stopwords.CleanString(query, langCode, false)))
	if cleaned == "" {
		return nil
	}
	doc, err := prose.NewDocument(cleaned, prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		return strings.Fields(cleaned)
	}
	var kept []string
	for _, tok := range doc.Tokens() {
		switch tok.Tag {
		case "NN", "NNS", "VB", "VBZ", "JJ":
			kept = append(kept, tok.Text)
		}
	}
	if len(kept) == 0 {
		return strings.Fields(cleaned)
	}
	return kept
}

var _ Scorer = (*StringSimilarity)(nil)
