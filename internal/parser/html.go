package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. h1..h6 map to heading levels; the
// whole file counts as page 1.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		blocks    []block
		headings  []doctree.HeadingCandidate
		pageText  strings.Builder
		blockLine int
	)
	addText := func(t string) {
		if pageText.Len() > 0 {
			pageText.WriteString("\n")
		}
		pageText.WriteString(t)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				title := textContent(n)
				if title != "" {
					headings = append(headings, doctree.HeadingCandidate{Text: title, Line: blockLine})
					blocks = append(blocks, block{heading: true, level: level, text: title, page: 1})
					addText(title)
					blockLine++
				}
				return // Text already extracted; don't recurse.
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				if t := textContent(n); t != "" {
					blocks = append(blocks, block{text: t, page: 1})
					addText(t)
					blockLine++
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	pages := []doctree.Page{{Number: 1, Text: pageText.String(), Headings: headings}}

	// Prefer the <title> tag for the document title.
	res, err := finishParse(filename, pages, blocks)
	if err != nil {
		return nil, err
	}
	if title := findTitle(doc); title != "" {
		res.Tree.Root().Title = title
	}
	return res, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
