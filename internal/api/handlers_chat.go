package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgallion1/docintake/internal/session"
)

// handleChat answers one question over the session's document set. The
// user turn is recorded before the completion call; the assistant turn is
// appended only when the call succeeds, so a failure leaves the question
// visibly unanswered.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	sess := s.sessionFor(r)
	docs := sess.Documents()
	if len(docs) == 0 {
		jsonError(w, "no documents processed yet", http.StatusConflict)
		return
	}

	sess.AppendTurn(session.Turn{Role: session.RoleUser, Content: question})

	answer, err := s.bot.Ask(r.Context(), question, docs)
	if err != nil {
		jsonError(w, "chat failed: "+err.Error(), statusForError(err))
		return
	}
	sess.AppendTurn(session.Turn{Role: session.RoleAssistant, Content: answer})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"answer":    answer,
		"documents": len(docs),
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	turns := s.sessionFor(r).Transcript()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(turns),
		"chat":  turns,
	})
}
