package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docintake/internal/analyze"
	"github.com/dgallion1/docintake/internal/encode"
	"github.com/dgallion1/docintake/internal/ocr"
	"github.com/dgallion1/docintake/internal/parser"
	"github.com/dgallion1/docintake/internal/session"
)

// Status is the state of one processing action. An action either runs all
// the way to committed or fails without touching the session store.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusEncoding   Status = "encoding"
	StatusExtracting Status = "extracting"
	StatusAnalyzing  Status = "analyzing"
	StatusCommitted  Status = "committed"
	StatusFailed     Status = "failed"
)

// Upload is one uploaded file. Ephemeral: it exists only for the duration
// of a single processing action.
type Upload struct {
	Filename string
	Data     []byte
}

// OCRClient is the remote text extraction dependency.
type OCRClient interface {
	ExtractImage(ctx context.Context, enc encode.Encoded) (string, error)
	ExtractPDF(ctx context.Context, data []byte) (string, error)
}

// imageExtensions route straight to the OCR provider.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsSupportedUpload reports whether any pipeline route can handle the file.
func IsSupportedUpload(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageExtensions[ext] || parser.SupportedExtensions[ext]
}

// Processor drives one upload through encode → extract → analyze → commit.
type Processor struct {
	ocr      OCRClient
	analyzer *analyze.Analyzer
	classify ocr.Classifier
	log      *slog.Logger

	ocrTimeout time.Duration
	llmTimeout time.Duration
}

func NewProcessor(ocrClient OCRClient, analyzer *analyze.Analyzer, classify ocr.Classifier, ocrTimeout, llmTimeout time.Duration, log *slog.Logger) *Processor {
	if classify == nil {
		classify = ocr.ClassifyForm
	}
	if ocrTimeout <= 0 {
		ocrTimeout = 60 * time.Second
	}
	if llmTimeout <= 0 {
		llmTimeout = 60 * time.Second
	}
	return &Processor{
		ocr:        ocrClient,
		analyzer:   analyzer,
		classify:   classify,
		log:        log,
		ocrTimeout: ocrTimeout,
		llmTimeout: llmTimeout,
	}
}

// Process runs one upload start-to-finish and commits the result. Encoding
// and extraction failures abort before any session mutation; analyzer
// failures are absorbed into the affected field and the document is still
// committed. Actions against the same session are serialized.
func (p *Processor) Process(ctx context.Context, sess *session.Session, up Upload) (session.Document, error) {
	sess.ProcessMu.Lock()
	defer sess.ProcessMu.Unlock()

	log := p.log.With("filename", up.Filename)
	start := time.Now()

	text, err := p.extractText(ctx, up, log)
	if err != nil {
		log.Error("extraction failed", "error", err)
		return session.Document{}, err
	}

	formType := p.classify(up.Filename, text)

	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()
	analysis := p.analyzer.Analyze(llmCtx, text, formType)

	doc := sess.Append(session.Document{
		Filename:      up.Filename,
		Timestamp:     session.Timestamp(time.Now()),
		FormType:      formType,
		ExtractedText: text,
		KeyValues:     analysis.KeyValues,
		Summary:       analysis.Summary,
	})

	log.Info("document committed",
		"doc_id", doc.ID,
		"form_type", doc.FormType,
		"text_len", len(doc.ExtractedText),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// extractText routes the upload: images go to the OCR provider, PDFs try
// the local text layer first, and other supported formats parse locally.
func (p *Processor) extractText(ctx context.Context, up Upload, log *slog.Logger) (string, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))

	switch {
	case imageExtensions[ext]:
		enc, err := encode.Encode(up.Data, up.Filename)
		if err != nil {
			return "", err
		}
		ocrCtx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
		defer cancel()
		return p.ocr.ExtractImage(ocrCtx, enc)

	case ext == ".pdf":
		text, err := (&parser.PDFParser{}).Parse(bytes.NewReader(up.Data), up.Filename)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err != nil {
			log.Warn("local pdf extraction failed, falling back to ocr", "error", err)
		}
		if len(up.Data) == 0 {
			return "", &encode.EncodingError{Filename: up.Filename, Reason: "empty file"}
		}
		ocrCtx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
		defer cancel()
		return p.ocr.ExtractPDF(ocrCtx, up.Data)

	case parser.SupportedExtensions[ext]:
		pr, err := parser.ForFile(up.Filename)
		if err != nil {
			return "", err
		}
		text, err := pr.Parse(bytes.NewReader(up.Data), up.Filename)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", up.Filename, err)
		}
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("no extractable text in %s", up.Filename)
		}
		return text, nil

	default:
		return "", fmt.Errorf("unsupported file extension: %s", ext)
	}
}
