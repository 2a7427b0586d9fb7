package chunker

import (
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	MaxTokens int // Hard token ceiling per chunk.
	Overlap   int // Tokens shared by consecutive chunks of one node.
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 512,
		Overlap:   128,
	}
}

// snapDivisor: a sentence end within the last tenth of the window wins
// over a hard cut at the token limit.
const snapDivisor = 10

// span is a half-open byte range into one node's text.
type span struct {
	start, end int
}

// ChunkDocument walks the tree depth-first in document order and
// windows each node's text into token-bounded overlapping chunks.
// Chunk ids are dense sequence indexes across the whole document.
func ChunkDocument(tree *doctree.Tree, cfg Config, counter Counter) []doctree.Chunk {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxTokens {
		cfg.Overlap = cfg.MaxTokens / 4
	}
	if counter == nil {
		counter = HeuristicCounter{}
	}

	var chunks []doctree.Chunk
	tree.Walk(func(n *doctree.StructureNode) {
		if strings.TrimSpace(n.Text) == "" {
			return
		}
		for _, sp := range windowText(n.Text, cfg, counter) {
			text := n.Text[sp.start:sp.end]
			chunks = append(chunks, doctree.Chunk{
				ID:          len(chunks),
				NodeID:      n.ID,
				Page:        n.PageAt(sp.start),
				StartOffset: sp.start,
				EndOffset:   sp.end,
				Text:        text,
				TokenCount:  counter.Count(text),
			})
		}
	})
	return chunks
}

// windowText splits one node's text into word-aligned windows. Chunk
// ordering within a node is strictly sequential; each window starts
// inside the previous one by about cfg.Overlap tokens.
func windowText(text string, cfg Config, counter Counter) []span {
	words := wordSpans(text)
	if len(words) == 0 {
		return nil
	}
	ends := make(map[int]bool)
	for _, e := range sentenceEnds(text) {
		ends[e] = true
	}

	// Per-word token costs drive the window math; BPE boundary effects
	// across words are small and the trim loop below enforces the
	// ceiling against the real tokenizer anyway.
	costs := make([]int, len(words))
	for i, w := range words {
		c := counter.Count(text[w.start:w.end])
		if c < 1 {
			c = 1
		}
		costs[i] = c
	}

	var spans []span
	start := 0
	for start < len(words) {
		tokens := 0
		end := start
		for end < len(words) && tokens+costs[end] <= cfg.MaxTokens {
			tokens += costs[end]
			end++
		}
		if end == start {
			// Single word over the ceiling; emit it whole.
			tokens = costs[start]
			end = start + 1
		}

		sp := span{words[start].start, words[end-1].end}
		for end-start > 1 && counter.Count(text[sp.start:sp.end]) > cfg.MaxTokens {
			end--
			tokens -= costs[end]
			sp.end = words[end-1].end
		}

		if end < len(words) {
			if snapped := snapToSentence(words, ends, costs, start, end, tokens, cfg.MaxTokens); snapped > start {
				end = snapped
				sp.end = words[end-1].end
			}
		}
		spans = append(spans, sp)

		if end >= len(words) {
			break
		}
		start = overlapStart(costs, start, end, cfg.Overlap)
	}
	return spans
}

// snapToSentence returns the latest cut position in the window's tail
// that lands on a sentence end, or 0 when none does. The tail is the
// last tenth of the token budget at the end of the window; snapping
// only ever shortens, so the ceiling holds without a re-check.
func snapToSentence(words []span, ends map[int]bool, costs []int, start, end, windowTokens, maxTokens int) int {
	threshold := windowTokens - maxTokens/snapDivisor
	tokens := 0
	tailStart := end
	for i := start; i < end; i++ {
		tokens += costs[i]
		if tokens >= threshold {
			tailStart = i + 1
			break
		}
	}
	for cut := end; cut >= tailStart; cut-- {
		if cut > start && ends[words[cut-1].end] {
			return cut
		}
	}
	return 0
}

// overlapStart walks back from the cut until about `overlap` tokens
// are covered, always advancing at least one word past the previous
// start so the pass terminates.
func overlapStart(costs []int, start, end, overlap int) int {
	if overlap <= 0 {
		return end
	}
	s := end
	tokens := 0
	for s > start+1 && tokens < overlap {
		s--
		tokens += costs[s]
	}
	return s
}

// wordSpans returns the byte ranges of whitespace-separated words.
func wordSpans(text string) []span {
	var spans []span
	inWord := false
	start := 0
	for i := 0; i < len(text); i++ {
		ws := isSpace(text[i])
		if !ws && !inWord {
			start = i
			inWord = true
		}
		if ws && inWord {
			spans = append(spans, span{start, i})
			inWord = false
		}
	}
	if inWord {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}
