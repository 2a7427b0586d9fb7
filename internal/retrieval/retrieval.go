// Package retrieval answers queries over a built document: structural
// and semantic candidates are unioned for recall, then re-ranked for
// precision.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/embedding"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/index"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/relevance"
)

// ErrNoCandidates means neither retrieval path produced chunks; the
// caller should answer "insufficient context" rather than guess.
var ErrNoCandidates = errors.New("no candidates retrieved")

// Snapshot is the queryable state of one built document.
type Snapshot struct {
	Tree       *doctree.Tree
	Chunks     []doctree.Chunk
	Store      *index.VectorStore
	Structural *index.StructuralIndex
}

// SourceStructural and SourceSemantic tag how a candidate was found.
const (
	SourceStructural = "structural"
	SourceSemantic   = "semantic"
)

// Retriever holds the process-wide collaborators of the query path.
// Per-document state arrives per call as a Snapshot.
type Retriever struct {
	embedder  embedding.Client
	reranker  relevance.Scorer
	overfetch int
	shortlist int
	log       *slog.Logger
}

func NewRetriever(embedder embedding.Client, reranker relevance.Scorer, overfetch, shortlist int, log *slog.Logger) *Retriever {
	if overfetch < 1 {
		overfetch = 3
	}
	if shortlist < 1 {
		shortlist = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{
		embedder:  embedder,
		reranker:  reranker,
		overfetch: overfetch,
		shortlist: shortlist,
		log:       log,
	}
}

type candidate struct {
	chunkID    int
	sources    []string
	titleScore float64
	distance   float64
	semantic   bool
	score      float64
}

// Retrieve returns the top-k citations for a query. Structural hits
// come first in chunk order, semantic hits follow by distance; the
// union is re-ranked by the cross-encoder, or left in union order
// when the re-ranker is unavailable.
func (r *Retriever) Retrieve(ctx context.Context, snap *Snapshot, query string, k int) ([]doctree.Citation, error) {
	if k <= 0 {
		k = r.shortlist
	}

	cands, err := r.gather(ctx, snap, query, k)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, ErrNoCandidates
	}

	r.rerank(ctx, snap, query, cands)

	if len(cands) > k {
		cands = cands[:k]
	}
	citations := make([]doctree.Citation, len(cands))
	for i, c := range cands {
		citations[i] = buildCitation(snap, c)
	}
	return citations, nil
}

// gather unions structural and semantic candidates, deduplicated by
// chunk id with source tags merged.
func (r *Retriever) gather(ctx context.Context, snap *Snapshot, query string, k int) ([]*candidate, error) {
	var cands []*candidate
	seen := make(map[int]*candidate)

	match, ok, err := snap.Structural.Lookup(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("structural lookup: %w", err)
	}
	if ok {
		for _, id := range match.ChunkIDs {
			c := &candidate{chunkID: id, sources: []string{SourceStructural}, titleScore: match.Score}
			seen[id] = c
			cands = append(cands, c)
		}
		r.log.Debug("structural match",
			"section", match.Title,
			"score", match.Score,
			"chunks", len(match.ChunkIDs))
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := snap.Store.Search(vec, k*r.overfetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	for _, res := range results {
		if c, dup := seen[res.ChunkID]; dup {
			c.sources = append(c.sources, SourceSemantic)
			c.distance = res.Distance
			c.semantic = true
			continue
		}
		c := &candidate{
			chunkID:  res.ChunkID,
			sources:  []string{SourceSemantic},
			distance: res.Distance,
			semantic: true,
		}
		seen[res.ChunkID] = c
		cands = append(cands, c)
	}
	return cands, nil
}

// rerank scores every candidate against the query. On failure the
// union order stands, scored by each candidate's raw signal.
func (r *Retriever) rerank(ctx context.Context, snap *Snapshot, query string, cands []*candidate) {
	texts := make([]string, len(cands))
	for i, c := range cands {
		texts[i] = chunkText(snap, c.chunkID)
	}

	scores, err := r.reranker.Score(ctx, query, texts)
	if err != nil || len(scores) != len(cands) {
		if err == nil {
			err = fmt.Errorf("scorer returned %d scores for %d candidates", len(scores), len(cands))
		}
		r.log.Warn("re-rank unavailable, keeping union order", "error", err)
		for _, c := range cands {
			c.score = c.fallbackScore()
		}
		return
	}

	for i, c := range cands {
		c.score = scores[i]
	}
	// Stable: equal scores keep union order, structural before semantic.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
}

// fallbackScore ranks a candidate without the cross-encoder: the title
// similarity for structural hits, a distance-derived similarity for
// semantic hits, the better of the two for both.
func (c *candidate) fallbackScore() float64 {
	s := c.titleScore
	if c.semantic {
		if d := 1 / (1 + c.distance); d > s {
			s = d
		}
	}
	return s
}

func chunkText(snap *Snapshot, chunkID int) string {
	if chunkID < 0 || chunkID >= len(snap.Chunks) {
		return ""
	}
	return snap.Chunks[chunkID].Text
}
