package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docintake/internal/encode"
	"github.com/dgallion1/docintake/internal/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "test-ocr-model", 5*time.Second, discardLogger())
}

func TestExtractImage_ConcatenatesPages(t *testing.T) {
	var gotReq ocrRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ocr" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		io.WriteString(w, `{"pages":[{"index":0,"markdown":"page one"},{"index":1,"markdown":"page two"}]}`)
	})

	enc, err := encode.Encode([]byte("img"), "scan.jpg")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	text, err := client.ExtractImage(context.Background(), enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "page one\n\npage two" {
		t.Errorf("expected concatenated pages, got %q", text)
	}

	if gotReq.Model != "test-ocr-model" {
		t.Errorf("expected model in request, got %q", gotReq.Model)
	}
	if gotReq.Document.Type != "image_url" {
		t.Errorf("expected image_url document, got %q", gotReq.Document.Type)
	}
	if !strings.HasPrefix(gotReq.Document.ImageURL, "data:image/jpeg;base64,") {
		t.Errorf("expected jpeg data url, got %q", gotReq.Document.ImageURL)
	}
}

func TestExtractPDF_SendsDocumentURL(t *testing.T) {
	var gotReq ocrRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		io.WriteString(w, `{"pages":[{"index":0,"markdown":"pdf text"}]}`)
	})

	text, err := client.ExtractPDF(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "pdf text" {
		t.Errorf("expected %q, got %q", "pdf text", text)
	}
	if gotReq.Document.Type != "document_url" {
		t.Errorf("expected document_url document, got %q", gotReq.Document.Type)
	}
	if !strings.HasPrefix(gotReq.Document.DocumentURL, "data:application/pdf;base64,") {
		t.Errorf("expected pdf data url, got %q", gotReq.Document.DocumentURL)
	}
}

func TestExtract_SkipsBlankPages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"pages":[{"index":0,"markdown":"  "},{"index":1,"markdown":"real"}]}`)
	})

	text, err := client.ExtractPDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "real" {
		t.Errorf("expected blank pages skipped, got %q", text)
	}
}

func TestExtract_MissingKeyFailsBeforeRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "m", time.Second, discardLogger())
	_, err := client.ExtractPDF(context.Background(), []byte("%PDF"))

	var authErr *provider.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *provider.AuthError, got %v", err)
	}
	if called {
		t.Error("no HTTP request expected without an api key")
	}
}

func TestExtract_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	})

	_, err := client.ExtractPDF(context.Background(), []byte("%PDF"))
	var authErr *provider.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *provider.AuthError, got %v", err)
	}
}

func TestExtract_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.ExtractPDF(context.Background(), []byte("%PDF"))
	var reqErr *provider.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *provider.RequestError, got %v", err)
	}
	if reqErr.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", reqErr.Status)
	}
}

func TestExtract_EmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"pages":[{"index":0,"markdown":"   "}]}`)
	})

	_, err := client.ExtractPDF(context.Background(), []byte("%PDF"))
	var emptyErr *provider.EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected *provider.EmptyResultError, got %v", err)
	}
}
