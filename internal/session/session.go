package session

import (
	"sync"
	"time"
)

// Document is the durable unit of session state. It is immutable after
// creation: the pipeline only ever appends new records.
type Document struct {
	ID            int    `json:"id"`
	Filename      string `json:"filename"`
	Timestamp     string `json:"timestamp"`
	FormType      string `json:"form_type"`
	ExtractedText string `json:"extracted_text"`
	KeyValues     string `json:"key_values"`
	Summary       string `json:"summary"`
}

// Turn is one chat message. Turns alternate user/assistant starting with
// user, but that is not structurally enforced: a failed completion leaves
// an unanswered user turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session owns one ordered document sequence and one chat transcript, held
// only in process memory. Reads always compute from the current sequences.
type Session struct {
	mu sync.Mutex

	documents []Document
	turns     []Turn
	nextID    int

	lastUsed time.Time

	// ProcessMu serializes upload-and-process actions against this
	// session: one runs start-to-finish before another may begin.
	ProcessMu sync.Mutex
}

func New() *Session {
	return &Session{nextID: 1, lastUsed: time.Now()}
}

// Append commits a processed document at the end of the sequence and
// assigns the next id. Ids are strictly increasing and never reused, even
// across Clear.
func (s *Session) Append(doc Document) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.nextID
	s.nextID++
	s.documents = append(s.documents, doc)
	s.lastUsed = time.Now()
	return doc
}

// AppendTurn adds a chat turn at the end of the transcript.
func (s *Session) AppendTurn(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	s.lastUsed = time.Now()
}

// Clear empties both sequences together. It is the only operation that can
// shorten either. The id counter is deliberately not reset.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = nil
	s.turns = nil
	s.lastUsed = time.Now()
}

// Documents returns a copy of the document sequence in insertion order.
func (s *Session) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// Latest returns the most recently committed document, if any.
func (s *Session) Latest() (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.documents) == 0 {
		return Document{}, false
	}
	return s.documents[len(s.documents)-1], true
}

// Get returns the document with the given id.
func (s *Session) Get(id int) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.documents {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// Transcript returns a copy of the chat transcript in order.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastUsed reports the time of the most recent mutation or read through
// Touch. The registry uses it for TTL eviction.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Touch marks the session as recently used.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
}

// Timestamp formats a document creation time the way the dashboard shows
// it. Assigned once at creation, never mutated.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
