package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.sessionFor(r).Analytics())
}

// handleExport serializes the full session — documents and chat, in order —
// into one versioned JSON document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	export := s.sessionFor(r).Export()

	name := fmt.Sprintf("docintake_export_%s.json", time.Now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(export)
}

// handleClearSession empties both the document sequence and the chat
// transcript together.
func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(r).Clear()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil || s.llm.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": s.llm.Model(),
		"stats": s.llm.Stats.Snapshot(),
	})
}
