package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docintake/internal/llm"
	"github.com/dgallion1/docintake/internal/session"
)

const chatSystemPrompt = "You are a helpful assistant answering questions about the user's processed documents. " +
	"Base your answers only on the document context provided. " +
	"If the answer is not in the documents, say so."

const (
	chatMaxTokens   = 800
	chatTemperature = 0.3
)

// Completer is the single LLM operation the chatbot needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Bot answers questions over the full accumulated document set.
type Bot struct {
	completer Completer
	builder   ContextBuilder
	log       *slog.Logger
}

func NewBot(completer Completer, builder ContextBuilder, log *slog.Logger) *Bot {
	if builder == nil {
		builder = ConcatBuilder{}
	}
	return &Bot{completer: completer, builder: builder, log: log}
}

// Ask issues one completion over the serialized document context plus the
// question. On failure it returns an error and nothing else: the caller
// must not append an assistant turn.
func (b *Bot) Ask(ctx context.Context, question string, docs []session.Document) (string, error) {
	docContext := b.builder.Build(docs)

	user := fmt.Sprintf("Documents:\n%s\n\nQuestion: %s", docContext, question)
	answer, err := b.completer.Complete(ctx, llm.Request{
		System:      chatSystemPrompt,
		User:        user,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	b.log.Info("chat.answer", "docs", len(docs), "question_len", len(question), "answer_len", len(answer))
	return strings.TrimSpace(answer), nil
}
