package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Heading levels
// come straight from the AST; the whole file counts as page 1.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []block
	var headings []doctree.HeadingCandidate
	line := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := string(h.Text(src))
			if title == "" {
				continue
			}
			headings = append(headings, doctree.HeadingCandidate{Text: title, Line: line})
			blocks = append(blocks, block{heading: true, level: h.Level, text: title, page: 1})
			line++
			continue
		}
		if t := extractText(n, src); t != "" {
			blocks = append(blocks, block{text: t, page: 1})
			line++
		}
	}

	pages := []doctree.Page{{Number: 1, Text: string(src), Headings: headings}}
	return finishParse(filename, pages, blocks)
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			buf.Write(lines.At(i).Value(src))
		}
	}
	// Also handle inline children.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
