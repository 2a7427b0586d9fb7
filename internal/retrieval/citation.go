package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/index"
)

// excerptLimit bounds citation excerpts so API responses stay small;
// answer prompts use the full chunk text instead.
const excerptLimit = 250

func buildCitation(snap *Snapshot, c *candidate) doctree.Citation {
	cit := doctree.Citation{
		ChunkID: c.chunkID,
		Score:   c.score,
		Sources: c.sources,
	}
	if c.chunkID < 0 || c.chunkID >= len(snap.Chunks) {
		return cit
	}
	chunk := snap.Chunks[c.chunkID]
	cit.Page = chunk.Page
	cit.Excerpt = Excerpt(chunk.Text, excerptLimit)
	cit.SectionPath = index.SectionPath(snap.Tree, chunk.NodeID)
	if node := snap.Tree.Node(chunk.NodeID); node != nil {
		cit.Section = node.Title
	}
	return cit
}

// Excerpt returns at most limit bytes of text, cut back to a word
// boundary, with an ellipsis when truncated.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]
	if i := strings.LastIndexByte(head, ' '); i > limit/2 {
		head = head[:i]
	}
	return strings.TrimSpace(head) + "..."
}
