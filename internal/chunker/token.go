package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts model tokens in text. The chunker only needs counts,
// not token ids, so both a real BPE and a cheap estimate satisfy it.
type Counter interface {
	Count(text string) int
	Name() string
}

// TiktokenCounter counts with the cl100k_base BPE.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) Name() string { return "cl100k_base" }

// HeuristicCounter estimates tokens from the word count. Used when the
// BPE ranks are unavailable and in tests.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int { return EstimateTokens(text) }

func (HeuristicCounter) Name() string { return "heuristic" }

// EstimateTokens gives a rough token count: ~1.33 tokens per English
// word. Exact tokenization is not required for chunking to be correct;
// the windowing pass re-checks real counts against the ceiling.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
