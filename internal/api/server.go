// Package api exposes the retrieval pipeline over HTTP: upload a
// document, inspect its structure, query it, reset the session.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/answer"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/config"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/pipeline"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/retrieval"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/session"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SessionHeader scopes requests to one client's document state.
// Requests without it share the default session.
const SessionHeader = "X-Session-ID"

const defaultSessionID = "default"

// Retriever answers a query against a session's snapshot.
type Retriever interface {
	Retrieve(ctx context.Context, snap *retrieval.Snapshot, query string, k int) ([]doctree.Citation, error)
}

// Deps are the collaborators the server dispatches to. The stats
// handles are the same instances the model clients record into.
type Deps struct {
	Sessions    *session.Manager
	Builder     *pipeline.Builder
	Retriever   Retriever
	Answerer    *answer.Client // nil disables answer generation
	EmbedStats  *stats.CallStats
	RerankStats *stats.CallStats
	AnswerStats *stats.CallStats
}

// Server is the HTTP API server.
type Server struct {
	router      chi.Router
	sessions    *session.Manager
	builder     *pipeline.Builder
	retriever   Retriever
	answerer    *answer.Client
	embedStats  *stats.CallStats
	rerankStats *stats.CallStats
	answerStats *stats.CallStats
	log         *slog.Logger
	cfg         config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		sessions:    deps.Sessions,
		builder:     deps.Builder,
		retriever:   deps.Retriever,
		answerer:    deps.Answerer,
		embedStats:  deps.EmbedStats,
		rerankStats: deps.RerankStats,
		answerStats: deps.AnswerStats,
		log:         log,
		cfg:         cfg,
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(cfg.SessionTTL)
	}
	if s.embedStats == nil {
		s.embedStats = stats.New(0)
	}
	if s.rerankStats == nil {
		s.rerankStats = stats.New(0)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents/structure", s.handleStructure)
		r.Post("/api/query", s.handleQuery)
		r.Post("/api/reset", s.handleReset)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// sessionFor resolves the caller's session, creating it on first use.
func (s *Server) sessionFor(r *http.Request) *session.Session {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = defaultSessionID
	}
	return s.sessions.Acquire(id)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
