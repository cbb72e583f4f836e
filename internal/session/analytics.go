package session

// Analytics is the aggregate view of a session, computed fresh from the
// current sequences on every call.
type Analytics struct {
	TotalDocuments  int            `json:"total_documents"`
	UniqueFormTypes int            `json:"unique_form_types"`
	TotalCharacters int            `json:"total_characters"`
	FormTypeCounts  map[string]int `json:"form_type_counts"`
	ChatTurns       int            `json:"chat_turns"`
}

// Analytics aggregates document counts, the form-type distribution, and
// total extracted characters.
func (s *Session) Analytics() Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := Analytics{
		TotalDocuments: len(s.documents),
		FormTypeCounts: make(map[string]int),
		ChatTurns:      len(s.turns),
	}
	for _, d := range s.documents {
		a.TotalCharacters += len(d.ExtractedText)
		a.FormTypeCounts[d.FormType]++
	}
	a.UniqueFormTypes = len(a.FormTypeCounts)
	return a
}
