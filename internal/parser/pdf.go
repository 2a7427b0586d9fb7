package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// pdfLine is one visual row of text with its dominant font size.
type pdfLine struct {
	text string
	size float64 // 0 when the page yielded no font information
	page int
	row  int // row index within the page, top first
}

// PDFParser handles PDF files. It extracts positioned text rows with
// font sizes, classifies headings against document-wide font
// statistics, and falls back to pdftotext if the Go library fails.
type PDFParser struct {
	Opts Options
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "dad-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	lines, err := extractPDFLines(tmpPath)
	if err != nil && p.Opts.FallbackPdftotext {
		text, ferr := extractPdftotext(tmpPath)
		if ferr == nil {
			// No font information this way; numbering patterns still apply.
			return parsePlainText(filename, text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return p.documentFromLines(filename, lines)
}

// extractPDFLines walks every page and groups positioned glyph runs
// into visual rows, top of page first.
func extractPDFLines(path string) ([]pdfLine, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []pdfLine
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// Positioned extraction failed for this page; keep its plain
			// text so no content is lost, just without font sizes.
			if text, perr := page.GetPlainText(nil); perr == nil {
				for idx, raw := range strings.Split(text, "\n") {
					if t := strings.TrimSpace(raw); t != "" {
						lines = append(lines, pdfLine{text: t, page: i, row: idx})
					}
				}
			}
			continue
		}
		// PDF y origin is bottom-left: larger position = higher on page.
		sort.Slice(rows, func(a, b int) bool { return rows[a].Position > rows[b].Position })
		for idx, row := range rows {
			text, size := joinRow(row.Content)
			if text == "" {
				continue
			}
			lines = append(lines, pdfLine{text: text, size: size, page: i, row: idx})
		}
	}
	return lines, nil
}

// joinRow concatenates the glyph runs of one row left to right,
// inserting a space when the horizontal gap is wide enough to separate
// words, and returns the row's dominant font size by character count.
func joinRow(words []pdflib.Text) (string, float64) {
	var buf strings.Builder
	sizeChars := make(map[float64]int)
	var prev *pdflib.Text
	for i := range words {
		w := &words[i]
		if w.S == "" {
			continue
		}
		if prev != nil && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(w.S, " ") {
			// A gap of about a quarter em reads as a word break.
			if gap := w.X - (prev.X + prev.W); gap > 0.25*prev.FontSize {
				buf.WriteByte(' ')
			}
		}
		buf.WriteString(w.S)
		sizeChars[QuantizeSize(w.FontSize)] += len([]rune(w.S))
		prev = w
	}

	var size float64
	best := -1
	for s, c := range sizeChars {
		if c > best || (c == best && s > size) {
			size, best = s, c
		}
	}
	return strings.TrimSpace(buf.String()), size
}

// documentFromLines runs the two-pass heading classification: collect
// document-wide font statistics, rank candidate sizes into levels, then
// emit heading/body blocks in reading order.
func (p *PDFParser) documentFromLines(filename string, lines []pdfLine) (*doctree.Document, error) {
	delta := p.Opts.HeadingSizeDelta
	if delta <= 0 {
		delta = DefaultOptions().HeadingSizeDelta
	}

	stats := NewFontStats()
	for _, l := range lines {
		stats.Add(l.size, len([]rune(l.text)))
	}
	bodySize := stats.BodySize()

	var candidateSizes []float64
	for _, l := range lines {
		if IsHeadingCandidate(l.text, l.size, bodySize, delta) {
			candidateSizes = append(candidateSizes, l.size)
		}
	}
	sizeLevels := RankHeadingSizes(candidateSizes)

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

	for _, l := range lines {
		if len(pages) == 0 || pages[len(pages)-1].Number != l.page {
			flushBody()
			pages = append(pages, doctree.Page{Number: l.page})
		}
		cur := &pages[len(pages)-1]
		if cur.Text != "" {
			cur.Text += "\n"
		}
		cur.Text += l.text

		lvl := ClassifyLine(l.text, l.size, bodySize, delta, sizeLevels)
		if lvl > 0 {
			flushBody()
			cur.Headings = append(cur.Headings, doctree.HeadingCandidate{
				Text:     l.text,
				FontSize: l.size,
				Line:     l.row,
			})
			blocks = append(blocks, block{heading: true, level: lvl, text: l.text, page: l.page})
			continue
		}
		if len(bodyRun) == 0 {
			bodyPage = l.page
		}
		bodyRun = append(bodyRun, l.text)
	}
	flushBody()

	return finishParse(filename, pages, blocks)
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
