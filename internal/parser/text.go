package parser

import (
	"io"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
)

// TextParser handles plain text files. Form feeds separate pages;
// numbered lines ("3.1 Results") open sections.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parsePlainText(filename, string(raw))
}

// parsePlainText builds a document from unpositioned text. Without
// font information the only heading signal is the numbering pattern.
// Shared with the PDF pdftotext fallback.
func parsePlainText(filename, text string) (*doctree.Document, error) {
	var (
		blocks   []block
		pages    []doctree.Page
		bodyRun  []string
		bodyPage int
	)
	flushBody := func() {
		if len(bodyRun) > 0 {
			blocks = append(blocks, block{text: strings.Join(bodyRun, "\n"), page: bodyPage})
			bodyRun = nil
		}
	}

	for i, pageText := range strings.Split(text, "\f") {
		pageNum := i + 1
		trimmed := strings.TrimSpace(pageText)
		if trimmed == "" {
			continue
		}
		flushBody()
		pages = append(pages, doctree.Page{Number: pageNum, Text: trimmed})
		cur := &pages[len(pages)-1]

		for lineIdx, raw := range strings.Split(trimmed, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				// Paragraph gap inside a page: close the current run so
				// paragraphs stay separated in the node text.
				flushBody()
				continue
			}
			if depth := NumberingDepth(line); depth > 0 {
				flushBody()
				cur.Headings = append(cur.Headings, doctree.HeadingCandidate{Text: line, Line: lineIdx})
				blocks = append(blocks, block{heading: true, level: depth, text: line, page: pageNum})
				continue
			}
			if len(bodyRun) == 0 {
				bodyPage = pageNum
			}
			bodyRun = append(bodyRun, line)
		}
	}
	flushBody()

	return finishParse(filename, pages, blocks)
}
