package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/answer"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/embedding"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/retrieval"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/session"
)

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type queryResponse struct {
	SessionID           string             `json:"session_id"`
	Query               string             `json:"query"`
	InsufficientContext bool               `json:"insufficient_context"`
	Results             []doctree.Citation `json:"results"`
	Answer              string             `json:"answer,omitempty"`
	AnswerModel         string             `json:"answer_model,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.K < 0 {
		jsonError(w, "k must not be negative", http.StatusBadRequest)
		return
	}

	_, snap, err := sess.Current()
	if err != nil {
		if errors.Is(err, session.ErrNoDocument) {
			jsonError(w, "no document indexed, upload one first", http.StatusConflict)
			return
		}
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	citations, err := s.retriever.Retrieve(r.Context(), snap, req.Query, req.K)
	if err != nil {
		var unavailable *embedding.UnavailableError
		switch {
		case errors.Is(err, retrieval.ErrNoCandidates):
			// Not an error for the caller: the document simply has
			// nothing relevant to offer.
			writeJSON(w, http.StatusOK, queryResponse{
				SessionID:           sess.ID,
				Query:               req.Query,
				InsufficientContext: true,
				Results:             []doctree.Citation{},
			})
		case errors.As(err, &unavailable):
			s.log.Error("embedding service unavailable", "error", err)
			jsonError(w, "embedding service unavailable", http.StatusBadGateway)
		default:
			s.log.Error("query failed", "session", sess.ID, "error", err)
			jsonError(w, "query failed", http.StatusInternalServerError)
		}
		return
	}

	resp := queryResponse{
		SessionID: sess.ID,
		Query:     req.Query,
		Results:   citations,
	}
	if s.answerer != nil {
		result, err := s.answerer.Generate(r.Context(), req.Query, contextBlocks(snap, citations))
		if err != nil {
			// Citations still stand on their own.
			s.log.Warn("answer generation failed, returning citations only", "error", err)
		} else {
			resp.Answer = result.Text
			resp.AnswerModel = result.Model
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// contextBlocks resolves each citation back to its full chunk text.
// Excerpts are for display; the model sees the whole chunk.
func contextBlocks(snap *retrieval.Snapshot, citations []doctree.Citation) []answer.ContextBlock {
	blocks := make([]answer.ContextBlock, 0, len(citations))
	for _, c := range citations {
		text := c.Excerpt
		if c.ChunkID >= 0 && c.ChunkID < len(snap.Chunks) {
			text = snap.Chunks[c.ChunkID].Text
		}
		blocks = append(blocks, answer.ContextBlock{
			Page:    c.Page,
			Section: c.Section,
			Text:    text,
		})
	}
	return blocks
}
