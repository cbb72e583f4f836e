package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docintake/internal/llm"
)

const summarySystemPrompt = "You are a document analyst. Produce a concise summary of the document content. " +
	"Focus on what the document is, who it concerns, and the key facts it records. " +
	"Respond with the summary only, no preamble."

const (
	summaryMaxTokens   = 500
	summaryTemperature = 0.3
)

// Completer is the single LLM operation the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Analysis holds both derived artifacts for a document. A provider failure
// in one is rendered into that field as text; it never blocks the other.
type Analysis struct {
	KeyValues string
	Summary   string
}

// Analyzer derives key-values and a summary from extracted text.
type Analyzer struct {
	completer Completer
	log       *slog.Logger
}

func NewAnalyzer(completer Completer, log *slog.Logger) *Analyzer {
	return &Analyzer{completer: completer, log: log}
}

// Analyze runs both sub-operations. Both always run: a failure in one is
// embedded as a descriptive message in its field and the document is still
// committed by the caller.
func (a *Analyzer) Analyze(ctx context.Context, text, formType string) Analysis {
	return Analysis{
		KeyValues: ExtractKeyValues(text),
		Summary:   a.summarize(ctx, text, formType),
	}
}

func (a *Analyzer) summarize(ctx context.Context, text, formType string) string {
	user := text
	if formType != "" && formType != "unknown" {
		user = fmt.Sprintf("Document type: %s\n\n%s", formType, text)
	}

	summary, err := a.completer.Complete(ctx, llm.Request{
		System:      summarySystemPrompt,
		User:        user,
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	if err != nil {
		a.log.Error("summarize failed", "error", err)
		return "analysis error: " + err.Error()
	}
	return strings.TrimSpace(summary)
}
