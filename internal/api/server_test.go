package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docintake/internal/analyze"
	"github.com/dgallion1/docintake/internal/chat"
	"github.com/dgallion1/docintake/internal/config"
	"github.com/dgallion1/docintake/internal/llm"
	"github.com/dgallion1/docintake/internal/ocr"
	"github.com/dgallion1/docintake/internal/pipeline"
	"github.com/dgallion1/docintake/internal/session"
)

const testAPIKey = "test-token"

// upstream fakes both providers behind one httptest server. Fields may be
// flipped between requests; tests run their requests sequentially.
type upstream struct {
	ocrStatus int
	ocrBody   string
	llmStatus int
	llmBody   string
}

func (u *upstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/v1/ocr"):
			w.WriteHeader(u.ocrStatus)
			io.WriteString(w, u.ocrBody)
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			w.WriteHeader(u.llmStatus)
			io.WriteString(w, u.llmBody)
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestServer(t *testing.T, up *upstream) *Server {
	t.Helper()

	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ocrClient := ocr.NewClient(srv.URL, "ocr-key", "test-ocr", time.Second, log)
	llmClient := llm.NewClient(srv.URL, "llm-key", "test-llm", time.Second, log)
	analyzer := analyze.NewAnalyzer(llmClient, log)
	processor := pipeline.NewProcessor(ocrClient, analyzer, nil, time.Second, time.Second, log)
	bot := chat.NewBot(llmClient, nil, log)

	cfg := config.Config{
		DocintakeAPIKey:     testAPIKey,
		MaxUploadBytes:      1 << 20,
		ChatContextMaxChars: 24000,
	}
	return NewServer(session.NewRegistry(time.Hour), processor, bot, llmClient, log, cfg)
}

func healthyUpstream() *upstream {
	return &upstream{
		ocrStatus: http.StatusOK,
		ocrBody:   `{"pages":[{"index":0,"markdown":"Name: Jane\nTotal: $42"}]}`,
		llmStatus: http.StatusOK,
		llmBody:   `{"choices":[{"message":{"content":"A short summary."}}]}`,
	}
}

func doRequest(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func uploadFile(t *testing.T, s *Server, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()
	return doRequest(t, s, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", rec.Code)
	}
}

func TestUploadAndList(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	rec := uploadFile(t, s, "invoice.png", []byte{1, 2, 3})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Status   string           `json:"status"`
		Document session.Document `json:"document"`
	}
	decodeJSON(t, rec, &created)
	if created.Status != string(pipeline.StatusCommitted) {
		t.Errorf("expected committed status, got %q", created.Status)
	}
	if created.Document.ID != 1 {
		t.Errorf("expected document id 1, got %d", created.Document.ID)
	}
	if created.Document.FormType != "invoice" {
		t.Errorf("expected form type invoice, got %q", created.Document.FormType)
	}
	if created.Document.Summary != "A short summary." {
		t.Errorf("expected summary, got %q", created.Document.Summary)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/documents", nil, "")
	var list struct {
		Count     int                `json:"count"`
		Documents []session.Document `json:"documents"`
	}
	decodeJSON(t, rec, &list)
	if list.Count != 1 || len(list.Documents) != 1 {
		t.Fatalf("expected 1 document, got count=%d len=%d", list.Count, len(list.Documents))
	}
	if list.Documents[0].Filename != "invoice.png" {
		t.Errorf("expected filename kept, got %q", list.Documents[0].Filename)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	rec := uploadFile(t, s, "movie.mp4", []byte{1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadOCRFailureLeavesSessionEmpty(t *testing.T) {
	up := healthyUpstream()
	up.ocrStatus = http.StatusServiceUnavailable
	up.ocrBody = "overloaded"
	s := newTestServer(t, up)

	rec := uploadFile(t, s, "scan.jpg", []byte{1, 2})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/documents", nil, "")
	var list struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &list)
	if list.Count != 0 {
		t.Errorf("failed upload must not commit, got %d documents", list.Count)
	}
}

func TestLatestDocument(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	rec := doRequest(t, s, http.MethodGet, "/api/documents/latest", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty session: expected 404, got %d", rec.Code)
	}

	uploadFile(t, s, "a.png", []byte{1})
	uploadFile(t, s, "b.png", []byte{2})

	rec = doRequest(t, s, http.MethodGet, "/api/documents/latest", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc session.Document
	decodeJSON(t, rec, &doc)
	if doc.Filename != "b.png" || doc.ID != 2 {
		t.Errorf("expected latest b.png id 2, got %+v", doc)
	}
}

func TestDownloadText(t *testing.T) {
	s := newTestServer(t, healthyUpstream())
	uploadFile(t, s, "form.png", []byte{1})

	rec := doRequest(t, s, http.MethodGet, "/api/documents/1/text", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Name: Jane\nTotal: $42" {
		t.Errorf("expected extracted text body, got %q", got)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "form.png_extracted.txt") {
		t.Errorf("expected attachment filename, got %q", cd)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/documents/99/text", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", rec.Code)
	}
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	// No documents yet.
	rec := doRequest(t, s, http.MethodPost, "/api/chat", strings.NewReader(`{"question":"hi"}`), "application/json")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 before any upload, got %d", rec.Code)
	}

	uploadFile(t, s, "invoice.png", []byte{1})

	rec = doRequest(t, s, http.MethodPost, "/api/chat", strings.NewReader(`{"question":"what is the total?"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer struct {
		Answer    string `json:"answer"`
		Documents int    `json:"documents"`
	}
	decodeJSON(t, rec, &answer)
	if answer.Answer != "A short summary." {
		t.Errorf("expected answer, got %q", answer.Answer)
	}
	if answer.Documents != 1 {
		t.Errorf("expected 1 document in scope, got %d", answer.Documents)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/chat", nil, "")
	var transcript struct {
		Count int            `json:"count"`
		Chat  []session.Turn `json:"chat"`
	}
	decodeJSON(t, rec, &transcript)
	if transcript.Count != 2 {
		t.Fatalf("expected 2 turns, got %d", transcript.Count)
	}
	if transcript.Chat[0].Role != session.RoleUser || transcript.Chat[1].Role != session.RoleAssistant {
		t.Errorf("unexpected transcript roles: %+v", transcript.Chat)
	}
}

func TestChatEmptyQuestion(t *testing.T) {
	s := newTestServer(t, healthyUpstream())

	rec := doRequest(t, s, http.MethodPost, "/api/chat", strings.NewReader(`{"question":"   "}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank question, got %d", rec.Code)
	}
}

func TestChatFailureLeavesQuestionUnanswered(t *testing.T) {
	up := healthyUpstream()
	s := newTestServer(t, up)
	uploadFile(t, s, "invoice.png", []byte{1})

	// Completion provider goes down after the upload.
	up.llmStatus = http.StatusServiceUnavailable
	up.llmBody = "down"

	rec := doRequest(t, s, http.MethodPost, "/api/chat", strings.NewReader(`{"question":"anyone there?"}`), "application/json")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/chat", nil, "")
	var transcript struct {
		Count int            `json:"count"`
		Chat  []session.Turn `json:"chat"`
	}
	decodeJSON(t, rec, &transcript)
	if transcript.Count != 1 {
		t.Fatalf("expected only the user turn recorded, got %d turns", transcript.Count)
	}
	if transcript.Chat[0].Role != session.RoleUser || transcript.Chat[0].Content != "anyone there?" {
		t.Errorf("unexpected lone turn: %+v", transcript.Chat[0])
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := newTestServer(t, healthyUpstream())
	uploadFile(t, s, "invoice.png", []byte{1})
	uploadFile(t, s, "receipt_2.png", []byte{2})

	rec := doRequest(t, s, http.MethodGet, "/api/analytics", nil, "")
	var a session.Analytics
	decodeJSON(t, rec, &a)
	if a.TotalDocuments != 2 {
		t.Errorf("expected 2 documents, got %d", a.TotalDocuments)
	}
	if a.UniqueFormTypes != 2 {
		t.Errorf("expected 2 form types, got %d", a.UniqueFormTypes)
	}
	if a.FormTypeCounts["invoice"] != 1 || a.FormTypeCounts["receipt"] != 1 {
		t.Errorf("unexpected counts: %v", a.FormTypeCounts)
	}
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t, healthyUpstream())
	uploadFile(t, s, "invoice.png", []byte{1})

	rec := doRequest(t, s, http.MethodGet, "/api/export", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "docintake_export_") {
		t.Errorf("expected export attachment, got %q", cd)
	}

	var export session.Export
	decodeJSON(t, rec, &export)
	if export.Version != session.ExportVersion {
		t.Errorf("expected version %d, got %d", session.ExportVersion, export.Version)
	}
	if len(export.Documents) != 1 {
		t.Errorf("expected 1 exported document, got %d", len(export.Documents))
	}
}

func TestClearSession(t *testing.T) {
	s := newTestServer(t, healthyUpstream())
	uploadFile(t, s, "invoice.png", []byte{1})
	doRequest(t, s, http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`), "application/json")

	rec := doRequest(t, s, http.MethodDelete, "/api/session", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/documents", nil, "")
	var list struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &list)
	if list.Count != 0 {
		t.Errorf("expected 0 documents after clear, got %d", list.Count)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/chat", nil, "")
	var transcript struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &transcript)
	if transcript.Count != 0 {
		t.Errorf("expected 0 turns after clear, got %d", transcript.Count)
	}

	// Id numbering continues after a clear.
	rec = uploadFile(t, s, "next.png", []byte{3})
	var created struct {
		Document session.Document `json:"document"`
	}
	decodeJSON(t, rec, &created)
	if created.Document.ID != 2 {
		t.Errorf("expected id 2 after clear, got %d", created.Document.ID)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, healthyUpstream())
	uploadFile(t, s, "invoice.png", []byte{1})

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("X-Session-ID", "someone-else")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var list struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &list)
	if list.Count != 0 {
		t.Errorf("expected isolated empty session, got %d documents", list.Count)
	}
}

func TestLLMStatsEndpoint(t *testing.T) {
	s := newTestServer(t, healthyUpstream())
	uploadFile(t, s, "invoice.png", []byte{1})

	rec := doRequest(t, s, http.MethodGet, "/api/stats/llm", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats struct {
		Model string            `json:"model"`
		Stats llm.StatsSnapshot `json:"stats"`
	}
	decodeJSON(t, rec, &stats)
	if stats.Model != "test-llm" {
		t.Errorf("expected model test-llm, got %q", stats.Model)
	}
	if stats.Stats.Count < 1 {
		t.Errorf("expected at least one latency sample, got %d", stats.Stats.Count)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/scan.png", "scan.png"},
		{"", "unnamed"},
		{".", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
