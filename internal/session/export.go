package session

import "time"

// ExportVersion is the schema version stamped on every export.
const ExportVersion = 1

// Export is the full session state serialized for external tooling.
type Export struct {
	Version    int        `json:"version"`
	ExportedAt string     `json:"exported_at"`
	Documents  []Document `json:"documents"`
	Chat       []Turn     `json:"chat"`
}

// Export snapshots both sequences in order. Parsing the output back yields
// exactly as many document entries as the sequence held at export time.
func (s *Session) Export() Export {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]Document, len(s.documents))
	copy(docs, s.documents)
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)

	return Export{
		Version:    ExportVersion,
		ExportedAt: time.Now().Format(time.RFC3339),
		Documents:  docs,
		Chat:       turns,
	}
}
