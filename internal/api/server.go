package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docintake/internal/chat"
	"github.com/dgallion1/docintake/internal/config"
	"github.com/dgallion1/docintake/internal/llm"
	"github.com/dgallion1/docintake/internal/pipeline"
	"github.com/dgallion1/docintake/internal/session"
)

// Server is the HTTP API server for docintake.
type Server struct {
	router    chi.Router
	sessions  *session.Registry
	processor *pipeline.Processor
	bot       *chat.Bot
	llm       *llm.Client
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Registry, processor *pipeline.Processor, bot *chat.Bot, llmClient *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions:  sessions,
		processor: processor,
		bot:       bot,
		llm:       llmClient,
		log:       log,
		cfg:       cfg,
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
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DocintakeAPIKey, s.log))

		r.Post("/api/documents", s.handleProcessDocument)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/latest", s.handleLatestDocument)
		r.Get("/api/documents/{docID}/text", s.handleDownloadText)

		r.Post("/api/chat", s.handleChat)
		r.Get("/api/chat", s.handleTranscript)

		r.Get("/api/analytics", s.handleAnalytics)
		r.Get("/api/export", s.handleExport)
		r.Delete("/api/session", s.handleClearSession)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// sessionFor resolves the caller's session from the X-Session-ID header.
// Every session is an independently owned instance of the data model.
func (s *Server) sessionFor(r *http.Request) *session.Session {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		id = "default"
	}
	return s.sessions.Get(id)
}
