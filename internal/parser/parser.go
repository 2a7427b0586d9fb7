package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
)

// ErrNoText reports a document with zero extractable text. Fatal for
// that upload; the user must supply a different file.
var ErrNoText = errors.New("no extractable text")

// maxHeadingLevels caps structure depth at chapter/section/subsection.
const maxHeadingLevels = 3

// DegradedSectionTitle names the single section created when no
// headings are confidently detected.
const DegradedSectionTitle = "Document Content"

// Parser converts raw document bytes into a Document with per-page
// text and a structure tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options carries the parsing tunables fixed at startup.
type Options struct {
	// HeadingSizeDelta is how many points above the body font size a
	// line must be to count as a heading candidate.
	HeadingSizeDelta float64
	// FallbackPdftotext enables shelling out to pdftotext when the Go
	// PDF library fails.
	FallbackPdftotext bool
}

func DefaultOptions() Options {
	return Options{HeadingSizeDelta: 0.9, FallbackPdftotext: true}
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{Opts: opts}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// block is one structural event in document order: a heading that opens
// a node, or a run of body text attached to the currently open node.
type block struct {
	heading bool
	level   int // valid when heading
	text    string
	page    int
}

type bodyPart struct {
	text string
	page int
}

// treeFromBlocks builds the structure tree by walking blocks with a
// stack of open nodes. Headings pop the stack to the nearest shallower
// level; body text attaches to the top of the stack. If no heading is
// seen at all the whole document becomes one root-level section
// (degraded mode, not an error).
func treeFromBlocks(title string, blocks []block) *doctree.Tree {
	tree := doctree.NewTree(title)
	stack := []*doctree.StructureNode{tree.Root()}
	body := map[int][]bodyPart{}
	sawHeading := false

	touch := func(page int) {
		for _, open := range stack {
			if page > open.EndPage {
				open.EndPage = page
			}
		}
	}

	for _, b := range blocks {
		if b.page < 1 {
			b.page = 1
		}
		if b.heading {
			sawHeading = true
			lvl := b.level
			if lvl < 1 {
				lvl = 1
			}
			if lvl > maxHeadingLevels {
				lvl = maxHeadingLevels
			}
			for len(stack) > 1 && stack[len(stack)-1].Level >= lvl {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1]
			n := tree.AddNode(parent.ID, b.text, lvl, b.page)
			stack = append(stack, n)
			touch(b.page)
			continue
		}
		t := strings.TrimSpace(b.text)
		if t == "" {
			continue
		}
		cur := stack[len(stack)-1]
		body[cur.ID] = append(body[cur.ID], bodyPart{text: t, page: b.page})
		touch(b.page)
	}

	if !sawHeading {
		// Everything landed on the root; wrap it in a single section.
		sec := tree.AddNode(0, DegradedSectionTitle, 1, tree.Root().StartPage)
		sec.EndPage = tree.Root().EndPage
		body[sec.ID] = body[0]
		delete(body, 0)
	}

	tree.Walk(func(n *doctree.StructureNode) {
		parts := body[n.ID]
		if len(parts) == 0 {
			return
		}
		var buf strings.Builder
		for i, p := range parts {
			if i > 0 {
				buf.WriteString("\n\n")
			}
			n.PageMarks = append(n.PageMarks, doctree.PageMark{Offset: buf.Len(), Page: p.page})
			buf.WriteString(p.text)
		}
		n.Text = buf.String()
	})
	propagateEndPages(tree, 0)
	return tree
}

// propagateEndPages widens each node's end page to cover its subtree.
func propagateEndPages(t *doctree.Tree, id int) int {
	n := t.Node(id)
	end := n.EndPage
	for _, c := range n.Children {
		if ce := propagateEndPages(t, c); ce > end {
			end = ce
		}
	}
	n.EndPage = end
	return end
}

// finishParse validates extracted text and assembles the Document.
func finishParse(filename string, pages []doctree.Page, blocks []block) (*doctree.Document, error) {
	hasText := false
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoText)
	}
	doc := &doctree.Document{
		Filename: filename,
		Pages:    pages,
		Tree:     treeFromBlocks(docTitle(filename), blocks),
	}
	if err := doc.Tree.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent structure tree: %w", err)
	}
	return doc, nil
}

func docTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
