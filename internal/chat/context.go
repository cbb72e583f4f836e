package chat

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docintake/internal/session"
)

// ContextBuilder turns the stored document set into the textual context for
// a chat completion. The naive include-everything policy lives behind this
// interface so it can be swapped for retrieval or windowing later.
type ContextBuilder interface {
	Build(docs []session.Document) string
}

// ConcatBuilder serializes every document, newest last, under a character
// budget. When the budget is exceeded, whole oldest documents are dropped
// first; if a single document alone exceeds the budget, its extracted text
// is cut and marked.
type ConcatBuilder struct {
	MaxChars int
}

// DefaultMaxContextChars bounds the chat context so the provider's input
// limit is never hit by a large session.
const DefaultMaxContextChars = 24000

const truncationMarker = "\n[... truncated ...]"

func (b ConcatBuilder) Build(docs []session.Document) string {
	maxChars := b.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	blocks := make([]string, len(docs))
	for i, d := range docs {
		blocks[i] = serializeDocument(d)
	}

	// Drop oldest documents until the rest fits.
	start := 0
	total := 0
	for i := len(blocks) - 1; i >= 0; i-- {
		if total+len(blocks[i]) > maxChars && total > 0 {
			start = i + 1
			break
		}
		total += len(blocks[i])
	}

	kept := blocks[start:]
	if len(kept) == 1 && len(kept[0]) > maxChars {
		cut := maxChars - len(truncationMarker)
		if cut < 0 {
			cut = 0
		}
		kept[0] = kept[0][:cut] + truncationMarker
	}

	var sb strings.Builder
	if start > 0 {
		fmt.Fprintf(&sb, "[%d older documents omitted]\n\n", start)
	}
	sb.WriteString(strings.Join(kept, "\n"))
	return sb.String()
}

func serializeDocument(d session.Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Document %d: %s (%s, processed %s) ---\n", d.ID, d.Filename, d.FormType, d.Timestamp)
	fmt.Fprintf(&sb, "Extracted text:\n%s\n", d.ExtractedText)
	fmt.Fprintf(&sb, "Key-values:\n%s\n", d.KeyValues)
	fmt.Fprintf(&sb, "Summary:\n%s\n", d.Summary)
	return sb.String()
}
