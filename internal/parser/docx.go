package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Word's Heading1..6 styles carry the
// hierarchy; the whole file counts as page 1.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "dad-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var (
		blocks   []block
		headings []doctree.HeadingCandidate
		pageText strings.Builder
		line     int
	)
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if pageText.Len() > 0 {
			pageText.WriteString("\n")
		}
		pageText.WriteString(text)

		if level := docxHeadingLevel(para); level > 0 {
			headings = append(headings, doctree.HeadingCandidate{Text: text, Line: line})
			blocks = append(blocks, block{heading: true, level: level, text: text, page: 1})
		} else {
			blocks = append(blocks, block{text: text, page: 1})
		}
		line++
	}

	pages := []doctree.Page{{Number: 1, Text: pageText.String(), Headings: headings}}
	return finishParse(filename, pages, blocks)
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	for lvl := 1; lvl <= 6; lvl++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", lvl)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", lvl)) {
			return lvl
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
