package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/reportgest/internal/sections"
)

func (s *Server) handleFetchStats(w http.ResponseWriter, r *http.Request) {
	if s.fetchStats == nil {
		jsonError(w, "fetch stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.fetchStats.Snapshot(),
	})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]sections.Heading{
		"top_level": s.extractor.Top.Headings(),
		"sub_level": s.extractor.Sub.Headings(),
	})
}
