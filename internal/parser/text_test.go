package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paperText = "1 Introduction\n" +
	"Intro body line one.\n" +
	"Intro body line two.\n" +
	"\f" +
	"more intro on page two.\n" +
	"\f" +
	"2 Results\n" +
	"Results body.\n" +
	"\n" +
	"2.1 Ablation\n" +
	"Ablation body.\n"

func TestTextParser_NumberedHeadingsFormTree(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(paperText), "paper.txt")
	require.NoError(t, err)

	tree := doc.Tree
	require.Len(t, tree.Root().Children, 2)

	intro := tree.Node(tree.Root().Children[0])
	assert.Equal(t, "1 Introduction", intro.Title)
	assert.Equal(t, 1, intro.Level)
	assert.Equal(t, 1, intro.StartPage)
	assert.Equal(t, 2, intro.EndPage)
	assert.Contains(t, intro.Text, "Intro body line one.")
	assert.Contains(t, intro.Text, "more intro on page two.")

	results := tree.Node(tree.Root().Children[1])
	assert.Equal(t, "2 Results", results.Title)
	assert.Equal(t, 3, results.StartPage)
	require.Len(t, results.Children, 1)

	abl := tree.Node(results.Children[0])
	assert.Equal(t, "2.1 Ablation", abl.Title)
	assert.Equal(t, 2, abl.Level)

	require.NoError(t, tree.Validate())
}

func TestTextParser_PageMarksLocateOffsets(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(paperText), "paper.txt")
	require.NoError(t, err)

	intro := doc.Tree.Node(doc.Tree.Root().Children[0])
	require.NotEmpty(t, intro.PageMarks)

	assert.Equal(t, 1, intro.PageAt(0))
	assert.Equal(t, 2, intro.PageAt(len(intro.Text)-1))

	idx := strings.Index(intro.Text, "more intro")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, 2, intro.PageAt(idx))
}

func TestTextParser_PagesCarryNumbersAndHeadings(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(paperText), "paper.txt")
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{doc.Pages[0].Number, doc.Pages[1].Number, doc.Pages[2].Number})
	require.Len(t, doc.Pages[0].Headings, 1)
	assert.Equal(t, "1 Introduction", doc.Pages[0].Headings[0].Text)
	require.Len(t, doc.Pages[2].Headings, 2)
}

func TestTextParser_ParagraphGapsPreserved(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("Para one.\n\n\n\nPara two."), "gaps.txt")
	require.NoError(t, err)

	sec := doc.Tree.Node(doc.Tree.Root().Children[0])
	assert.Equal(t, "Para one.\n\nPara two.", sec.Text)
}

func TestTextParser_NoHeadingsDegradesToSingleSection(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("plain prose only.\nmore prose."), "note.txt")
	require.NoError(t, err)

	root := doc.Tree.Root()
	require.Len(t, root.Children, 1)
	assert.Equal(t, DegradedSectionTitle, doc.Tree.Node(root.Children[0]).Title)
}

func TestTextParser_BlankInputIsParseFailure(t *testing.T) {
	for _, input := range []string{"", "   \n  ", "\f\f"} {
		_, err := (&TextParser{}).Parse(strings.NewReader(input), "blank.txt")
		require.ErrorIs(t, err, ErrNoText, "input=%q", input)
	}
}
