package doctree

import (
	"fmt"
	"strings"
)

// Document is one uploaded source and everything built from it.
type Document struct {
	ID          string  // Assigned at build time
	Filename    string  // Original upload name
	Fingerprint string  // SHA-256 of the raw bytes
	Pages       []Page  // Ordered, 1-based numbering
	Tree        *Tree   // Structure tree
	Chunks      []Chunk // Ordered chunk sequence, ids dense from 0
}

// Page holds the raw text of one source page plus the heading
// candidates detected on it.
type Page struct {
	Number   int // 1-based
	Text     string
	Headings []HeadingCandidate
}

// HeadingCandidate is a line the parser considered a heading.
type HeadingCandidate struct {
	Text     string
	FontSize float64 // 0 for formats without font information
	Line     int     // Line index within the page
}

// StructureNode is a chapter/section/subsection. Children are referenced
// by id; the parent link is resolved through the owning Tree, never a
// pointer back up.
type StructureNode struct {
	ID        int
	ParentID  int // -1 for the root
	Title     string
	Level     int // 0 = root, 1 = chapter/top section, ...
	StartPage int
	EndPage   int
	Text      string     // Body text attached to this node (not descendants)
	PageMarks []PageMark // Offsets into Text where a new source page begins
	Children  []int      // Child node ids in document order
}

// PageMark ties a byte offset in a node's text to its source page.
type PageMark struct {
	Offset int
	Page   int
}

// PageAt returns the page containing the given byte offset of the
// node's text, falling back to the node's start page.
func (n *StructureNode) PageAt(offset int) int {
	page := n.StartPage
	for _, m := range n.PageMarks {
		if m.Offset > offset {
			break
		}
		page = m.Page
	}
	return page
}

// Chunk is a contiguous token-bounded span of one node's text.
type Chunk struct {
	ID          int // Sequence index within the document
	NodeID      int
	Page        int
	StartOffset int // Byte offset into the owning node's trimmed text
	EndOffset   int
	Text        string
	TokenCount  int
}

// Citation is a query-time result: a chunk enriched with section/page
// provenance. Built fresh per query, never stored.
type Citation struct {
	ChunkID     int      `json:"chunk_id"`
	Section     string   `json:"section"`
	SectionPath string   `json:"section_path"`
	Page        int      `json:"page"`
	Score       float64  `json:"score"`
	Sources     []string `json:"sources"`
	Excerpt     string   `json:"excerpt"`
}

// Tree owns the structure nodes. Node ids are dense ints assigned in
// document order, so the slice doubles as the id index.
type Tree struct {
	nodes []*StructureNode
}

// NewTree creates a tree containing only the root node.
func NewTree(title string) *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, &StructureNode{
		ID:        0,
		ParentID:  -1,
		Title:     title,
		Level:     0,
		StartPage: 1,
		EndPage:   1,
	})
	return t
}

// Root returns the document-level node.
func (t *Tree) Root() *StructureNode { return t.nodes[0] }

// Node returns the node with the given id, or nil if out of range.
func (t *Tree) Node(id int) *StructureNode {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Parent returns the parent of id, or nil for the root.
func (t *Tree) Parent(id int) *StructureNode {
	n := t.Node(id)
	if n == nil || n.ParentID < 0 {
		return nil
	}
	return t.Node(n.ParentID)
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// AddNode appends a child under parentID and returns it.
func (t *Tree) AddNode(parentID int, title string, level, startPage int) *StructureNode {
	n := &StructureNode{
		ID:        len(t.nodes),
		ParentID:  parentID,
		Title:     title,
		Level:     level,
		StartPage: startPage,
		EndPage:   startPage,
	}
	t.nodes = append(t.nodes, n)
	if p := t.Node(parentID); p != nil {
		p.Children = append(p.Children, n.ID)
	}
	return n
}

// Walk visits every node depth-first in document order, root included.
func (t *Tree) Walk(fn func(*StructureNode)) {
	if len(t.nodes) == 0 {
		return
	}
	t.walk(0, fn)
}

func (t *Tree) walk(id int, fn func(*StructureNode)) {
	n := t.Node(id)
	fn(n)
	for _, c := range n.Children {
		t.walk(c, fn)
	}
}

// Subtree returns the ids of the node and all its descendants in
// document order.
func (t *Tree) Subtree(id int) []int {
	var ids []int
	var rec func(int)
	rec = func(cur int) {
		n := t.Node(cur)
		if n == nil {
			return
		}
		ids = append(ids, cur)
		for _, c := range n.Children {
			rec(c)
		}
	}
	rec(id)
	return ids
}

// Path returns the titles from the first level below the root down to
// the node. The root itself yields an empty path.
func (t *Tree) Path(id int) []string {
	var rev []string
	for n := t.Node(id); n != nil && n.ParentID >= 0; n = t.Node(n.ParentID) {
		rev = append(rev, n.Title)
	}
	path := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

// Validate checks the page-range invariant: every child's range nests
// inside its parent's, and siblings start in non-decreasing page order.
func (t *Tree) Validate() error {
	for _, n := range t.nodes {
		if n.EndPage < n.StartPage {
			return fmt.Errorf("node %d %q: end page %d before start page %d", n.ID, n.Title, n.EndPage, n.StartPage)
		}
		prevStart := 0
		for _, cid := range n.Children {
			c := t.Node(cid)
			if c == nil {
				return fmt.Errorf("node %d %q: missing child %d", n.ID, n.Title, cid)
			}
			if c.StartPage < n.StartPage || c.EndPage > n.EndPage {
				return fmt.Errorf("node %d %q: child %d range [%d,%d] outside [%d,%d]",
					n.ID, n.Title, cid, c.StartPage, c.EndPage, n.StartPage, n.EndPage)
			}
			if c.StartPage < prevStart {
				return fmt.Errorf("node %d %q: child %d starts at page %d before sibling at %d",
					n.ID, n.Title, cid, c.StartPage, prevStart)
			}
			prevStart = c.StartPage
		}
	}
	return nil
}

// SectionCount returns the number of nodes below the root.
func (t *Tree) SectionCount() int { return len(t.nodes) - 1 }

// Breadcrumb renders the path as "A > B > C" for logs and citations.
func (t *Tree) Breadcrumb(id int) string {
	return strings.Join(t.Path(id), " > ")
}
