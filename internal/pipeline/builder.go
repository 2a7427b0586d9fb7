// Package pipeline builds per-document retrieval state: parse into a
// structure tree, chunk, embed, index. A build either completes wholly
// or leaves nothing behind.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/chunker"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/config"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/embedding"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/index"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/parser"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/relevance"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/retrieval"
)

// ParseError marks a document that could not be parsed into usable
// text. Fatal for that upload, never retried.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Filename, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// BuildResult summarizes one successful build.
type BuildResult struct {
	DocID       string `json:"doc_id"`
	Filename    string `json:"filename"`
	Fingerprint string `json:"fingerprint"`
	Pages       int    `json:"pages"`
	Sections    int    `json:"sections"`
	Chunks      int    `json:"chunks"`
	BuildTimeMs int64  `json:"build_time_ms"`
}

// Built bundles everything a session keeps after a build.
type Built struct {
	Doc      *doctree.Document
	Snapshot *retrieval.Snapshot
	Result   BuildResult
}

// Builder turns uploaded bytes into queryable state. Collaborators are
// process-wide singletons; every Build call produces fresh
// per-document state.
type Builder struct {
	embedder    embedding.Client
	titleScorer relevance.Scorer
	counter     chunker.Counter
	parserOpts  parser.Options
	chunkCfg    chunker.Config
	threshold   float64
	concurrency int
	log         *slog.Logger
}

func NewBuilder(cfg config.Config, embedder embedding.Client, titleScorer relevance.Scorer, counter chunker.Counter, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	concurrency := cfg.EmbedConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{
		embedder:    embedder,
		titleScorer: titleScorer,
		counter:     counter,
		parserOpts: parser.Options{
			HeadingSizeDelta:  cfg.HeadingSizeDelta,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
		chunkCfg: chunker.Config{
			MaxTokens: cfg.MaxTokensPerChunk,
			Overlap:   cfg.OverlapTokens,
		},
		threshold:   cfg.TitleMatchThreshold,
		concurrency: concurrency,
		log:         log,
	}
}

// Build parses, chunks, embeds, and indexes one document.
func (b *Builder) Build(ctx context.Context, filename string, data []byte) (*Built, error) {
	started := time.Now()
	log := b.log.With("filename", filename)

	p, err := parser.ForFile(filename, b.parserOpts)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	doc.ID = NewDocID()
	doc.Fingerprint = ContentHashHex(data)
	log.Info("parsed document",
		"doc_id", doc.ID,
		"pages", len(doc.Pages),
		"sections", doc.Tree.SectionCount())

	doc.Chunks = chunker.ChunkDocument(doc.Tree, b.chunkCfg, b.counter)
	if len(doc.Chunks) == 0 {
		return nil, &ParseError{Filename: filename, Err: parser.ErrNoText}
	}
	log.Info("chunked document", "doc_id", doc.ID, "chunks", len(doc.Chunks))

	vectors, err := b.embedChunks(ctx, doc.Chunks)
	if err != nil {
		return nil, err
	}

	dim := b.embedder.Dimension()
	if dim <= 0 {
		dim = len(vectors[0])
	}
	store := index.NewVectorStore(dim)
	for i, vec := range vectors {
		if err := store.Insert(doc.Chunks[i].ID, vec); err != nil {
			return nil, fmt.Errorf("index chunk %d: %w", doc.Chunks[i].ID, err)
		}
	}
	structural := index.NewStructuralIndex(doc.Tree, doc.Chunks, b.titleScorer, b.threshold)

	elapsed := time.Since(started)
	log.Info("build complete",
		"doc_id", doc.ID,
		"chunks", store.Size(),
		"indexed_sections", structural.SectionCount(),
		"elapsed_ms", elapsed.Milliseconds())

	return &Built{
		Doc: doc,
		Snapshot: &retrieval.Snapshot{
			Tree:       doc.Tree,
			Chunks:     doc.Chunks,
			Store:      store,
			Structural: structural,
		},
		Result: BuildResult{
			DocID:       doc.ID,
			Filename:    doc.Filename,
			Fingerprint: doc.Fingerprint,
			Pages:       len(doc.Pages),
			Sections:    doc.Tree.SectionCount(),
			Chunks:      len(doc.Chunks),
			BuildTimeMs: elapsed.Milliseconds(),
		},
	}, nil
}

// embedChunks embeds every chunk's text, one API batch per goroutine
// with bounded parallelism. Vector order matches chunk order.
func (b *Builder) embedChunks(ctx context.Context, chunks []doctree.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	batch := b.embedder.MaxBatchSize()
	if batch <= 0 {
		batch = 64
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for start := 0; start < len(texts); start += batch {
		start := start
		end := min(start+batch, len(texts))
		g.Go(func() error {
			vecs, err := b.embedder.BatchEmbed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vecs), end-start)
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// ContentHashHex is the document fingerprint: SHA-256 of the raw
// upload bytes, hex encoded.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
