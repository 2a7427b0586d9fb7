package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/embedding"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/parser"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/pipeline"
)

// sectionPayload is one structure-tree node in API responses.
type sectionPayload struct {
	ID        int    `json:"id"`
	ParentID  int    `json:"parent_id"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Path      string `json:"path"`
	Chunks    int    `json:"chunks"`
}

type uploadResponse struct {
	pipeline.BuildResult
	SessionID string           `json:"session_id"`
	Title     string           `json:"title"`
	Structure []sectionPayload `json:"structure"`
}

type structureResponse struct {
	SessionID string           `json:"session_id"`
	DocID     string           `json:"doc_id"`
	Filename  string           `json:"filename"`
	Pages     int              `json:"pages"`
	Title     string           `json:"title"`
	Sections  []sectionPayload `json:"sections"`
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusUnprocessableEntity)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	built, err := s.builder.Build(r.Context(), filename, data)
	if err != nil {
		var parseErr *pipeline.ParseError
		var unavailable *embedding.UnavailableError
		switch {
		case errors.As(err, &parseErr):
			jsonError(w, parseErr.Error(), http.StatusUnprocessableEntity)
		case errors.As(err, &unavailable):
			s.log.Error("embedding service unavailable", "filename", filename, "error", err)
			jsonError(w, "embedding service unavailable", http.StatusBadGateway)
		default:
			s.log.Error("document build failed", "filename", filename, "error", err)
			jsonError(w, "document build failed", http.StatusInternalServerError)
		}
		return
	}

	// The new document replaces whatever the session held before.
	sess.Install(built.Doc, built.Snapshot)
	s.log.Info("document installed",
		"session", sess.ID,
		"doc_id", built.Result.DocID,
		"filename", built.Result.Filename,
		"chunks", built.Result.Chunks,
	)

	writeJSON(w, http.StatusCreated, uploadResponse{
		BuildResult: built.Result,
		SessionID:   sess.ID,
		Title:       built.Doc.Tree.Root().Title,
		Structure:   sectionList(built.Doc.Tree, built.Doc.Chunks),
	})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	doc, _, err := sess.Current()
	if err != nil {
		jsonError(w, "no document indexed in this session", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, structureResponse{
		SessionID: sess.ID,
		DocID:     doc.ID,
		Filename:  doc.Filename,
		Pages:     len(doc.Pages),
		Title:     doc.Tree.Root().Title,
		Sections:  sectionList(doc.Tree, doc.Chunks),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	sess.Reset()
	s.log.Info("session reset", "session", sess.ID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "reset",
		"session_id": sess.ID,
	})
}

// sectionList flattens the tree in document order, skipping the root.
func sectionList(tree *doctree.Tree, chunks []doctree.Chunk) []sectionPayload {
	counts := make(map[int]int, tree.Len())
	for _, c := range chunks {
		counts[c.NodeID]++
	}
	sections := make([]sectionPayload, 0, tree.Len()-1)
	tree.Walk(func(n *doctree.StructureNode) {
		if n.ID == 0 {
			return
		}
		sections = append(sections, sectionPayload{
			ID:        n.ID,
			ParentID:  n.ParentID,
			Title:     n.Title,
			Level:     n.Level,
			StartPage: n.StartPage,
			EndPage:   n.EndPage,
			Path:      tree.Breadcrumb(n.ID),
			Chunks:    counts[n.ID],
		})
	})
	return sections
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
