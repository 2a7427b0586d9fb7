package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPaperTree() *Tree {
	t := NewTree("sample paper")
	t.Root().EndPage = 5
	intro := t.AddNode(0, "Introduction", 1, 1)
	intro.EndPage = 2
	results := t.AddNode(0, "Results", 1, 3)
	results.EndPage = 5
	abl := t.AddNode(results.ID, "Ablation", 2, 4)
	abl.EndPage = 5
	return t
}

func TestTree_WalkVisitsDocumentOrder(t *testing.T) {
	tree := buildPaperTree()

	var titles []string
	tree.Walk(func(n *StructureNode) { titles = append(titles, n.Title) })

	assert.Equal(t, []string{"sample paper", "Introduction", "Results", "Ablation"}, titles)
}

func TestTree_PathAndBreadcrumb(t *testing.T) {
	tree := buildPaperTree()

	assert.Empty(t, tree.Path(0))
	assert.Equal(t, []string{"Results", "Ablation"}, tree.Path(3))
	assert.Equal(t, "Results > Ablation", tree.Breadcrumb(3))
}

func TestTree_ParentResolvesThroughTree(t *testing.T) {
	tree := buildPaperTree()

	require.NotNil(t, tree.Parent(3))
	assert.Equal(t, "Results", tree.Parent(3).Title)
	assert.Nil(t, tree.Parent(0))
	assert.Nil(t, tree.Node(99))
}

func TestTree_SubtreeIncludesDescendants(t *testing.T) {
	tree := buildPaperTree()

	assert.Equal(t, []int{2, 3}, tree.Subtree(2))
	assert.Equal(t, []int{0, 1, 2, 3}, tree.Subtree(0))
}

func TestTree_ValidateAcceptsNestedRanges(t *testing.T) {
	tree := buildPaperTree()
	require.NoError(t, tree.Validate())
}

func TestTree_ValidateRejectsChildOutsideParent(t *testing.T) {
	tree := buildPaperTree()
	tree.Node(3).EndPage = 9

	err := tree.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")
}

func TestTree_ValidateRejectsInvertedRange(t *testing.T) {
	tree := buildPaperTree()
	tree.Node(1).EndPage = 0

	require.Error(t, tree.Validate())
}

func TestTree_SectionCountExcludesRoot(t *testing.T) {
	tree := buildPaperTree()
	assert.Equal(t, 3, tree.SectionCount())
}
