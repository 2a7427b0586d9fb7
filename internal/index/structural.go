package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/parser"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/relevance"
)

// entry is one matchable section: its normalized title, an optional
// dotted path key, and the chunk ids of the node plus descendants.
type entry struct {
	nodeID   int
	display  string
	title    string
	pathKey  string
	chunkIDs []int
}

// Match is a successful structural lookup.
type Match struct {
	NodeID   int
	Title    string
	Score    float64
	ChunkIDs []int
}

// StructuralIndex maps section titles and dotted path keys to the
// chunk ranges they own. A query naming a section gets the whole
// section back rather than whatever top-k semantic search surfaces.
type StructuralIndex struct {
	entries   []entry
	scorer    relevance.Scorer
	threshold float64
}

func NewStructuralIndex(tree *doctree.Tree, chunks []doctree.Chunk, scorer relevance.Scorer, threshold float64) *StructuralIndex {
	byNode := make(map[int][]int, tree.Len())
	for _, c := range chunks {
		byNode[c.NodeID] = append(byNode[c.NodeID], c.ID)
	}

	var entries []entry
	tree.Walk(func(n *doctree.StructureNode) {
		if n.ID == 0 {
			// The root is the whole document, not a section.
			return
		}
		title := NormalizeTitle(n.Title)
		if title == "" {
			return
		}
		var ids []int
		for _, sub := range tree.Subtree(n.ID) {
			ids = append(ids, byNode[sub]...)
		}
		if len(ids) == 0 {
			return
		}
		sort.Ints(ids)
		e := entry{nodeID: n.ID, display: n.Title, title: title, chunkIDs: ids}
		if key := SectionPath(tree, n.ID); key != title {
			e.pathKey = key
		}
		entries = append(entries, e)
	})
	return &StructuralIndex{entries: entries, scorer: scorer, threshold: threshold}
}

// Lookup fuzzy-matches the query against every section title and path
// key. The best entry at or above the threshold wins; score ties keep
// the earlier section. No match is not an error.
func (x *StructuralIndex) Lookup(ctx context.Context, query string) (Match, bool, error) {
	if len(x.entries) == 0 || strings.TrimSpace(query) == "" {
		return Match{}, false, nil
	}

	texts := make([]string, 0, len(x.entries)*2)
	owner := make([]int, 0, len(x.entries)*2)
	for i, e := range x.entries {
		texts = append(texts, e.title)
		owner = append(owner, i)
		if e.pathKey != "" {
			texts = append(texts, e.pathKey)
			owner = append(owner, i)
		}
	}

	scores, err := x.scorer.Score(ctx, query, texts)
	if err != nil {
		return Match{}, false, fmt.Errorf("score section titles: %w", err)
	}
	if len(scores) != len(texts) {
		return Match{}, false, fmt.Errorf("scorer returned %d scores for %d titles", len(scores), len(texts))
	}

	best := -1
	bestScore := 0.0
	for i, sc := range scores {
		if sc > bestScore {
			best = i
			bestScore = sc
		}
	}
	if best < 0 || bestScore < x.threshold {
		return Match{}, false, nil
	}

	e := x.entries[owner[best]]
	ids := make([]int, len(e.chunkIDs))
	copy(ids, e.chunkIDs)
	return Match{NodeID: e.nodeID, Title: e.display, Score: bestScore, ChunkIDs: ids}, true, nil
}

// SectionCount reports how many sections are matchable.
func (x *StructuralIndex) SectionCount() int { return len(x.entries) }

// NormalizeTitle strips leading numbering and normalizes case and
// whitespace, so "5.1 Ablation Study" and "ablation study" compare
// equal.
func NormalizeTitle(title string) string {
	return relevance.Normalize(parser.StripNumbering(title))
}

// SectionPath is the dotted lowercase path of a node below the root,
// e.g. "results.ablation".
func SectionPath(tree *doctree.Tree, nodeID int) string {
	segs := tree.Path(nodeID)
	for i, s := range segs {
		segs[i] = NormalizeTitle(s)
	}
	return strings.Join(segs, ".")
}
