package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docintake/internal/encode"
	"github.com/dgallion1/docintake/internal/pipeline"
	"github.com/dgallion1/docintake/internal/provider"
)

// handleProcessDocument accepts a multipart upload and runs the full
// pipeline synchronously. A failed action leaves the session untouched.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !pipeline.IsSupportedUpload(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	sess := s.sessionFor(r)
	doc, err := s.processor.Process(r.Context(), sess, pipeline.Upload{
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		jsonError(w, "processing failed: "+err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"status":   pipeline.StatusCommitted,
		"document": doc,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.sessionFor(r).Documents()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

func (s *Server) handleLatestDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.sessionFor(r).Latest()
	if !ok {
		jsonError(w, "no documents processed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleDownloadText serves the extracted text as a plain-text attachment
// named from the original filename.
func (s *Server) handleDownloadText(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "docID"))
	if err != nil {
		jsonError(w, "invalid document id", http.StatusBadRequest)
		return
	}
	doc, ok := s.sessionFor(r).Get(id)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename+"_extracted.txt"))
	io.WriteString(w, doc.ExtractedText)
}

// statusForError maps pipeline errors to HTTP statuses: caller mistakes are
// 4xx, provider failures are 502.
func statusForError(err error) int {
	var encErr *encode.EncodingError
	if errors.As(err, &encErr) {
		return http.StatusBadRequest
	}
	var authErr *provider.AuthError
	if errors.As(err, &authErr) {
		return http.StatusBadGateway
	}
	var reqErr *provider.RequestError
	if errors.As(err, &reqErr) {
		return http.StatusBadGateway
	}
	var emptyErr *provider.EmptyResultError
	if errors.As(err, &emptyErr) {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
