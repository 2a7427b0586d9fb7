package api

import (
	"net/http"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/stats"
)

type serviceStats struct {
	Model string         `json:"model"`
	Calls stats.Snapshot `json:"calls"`
}

type statsResponse struct {
	Sessions  int           `json:"sessions"`
	Embedding serviceStats  `json:"embedding"`
	Rerank    serviceStats  `json:"rerank"`
	Answer    *serviceStats `json:"answer,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Sessions: s.sessions.Len(),
		Embedding: serviceStats{
			Model: s.cfg.EmbeddingModel,
			Calls: s.embedStats.Snapshot(),
		},
		Rerank: serviceStats{
			Model: s.cfg.RerankModel,
			Calls: s.rerankStats.Snapshot(),
		},
	}
	if s.answerer != nil && s.answerStats != nil {
		resp.Answer = &serviceStats{
			Model: s.answerer.ModelName(),
			Calls: s.answerStats.Snapshot(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
