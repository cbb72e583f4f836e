package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docintake/internal/provider"
)

const providerName = "groq"

// Client calls an OpenAI-compatible chat/completions endpoint. Both the
// document analyzer and the chatbot go through it.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger

	// Stats tracks completion latencies for the stats endpoint.
	Stats *Stats
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:   log,
		Stats: NewStats(time.Hour),
	}
}

// Request describes a single completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues one chat-completion call and returns the completion text
// verbatim.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", &provider.AuthError{Provider: providerName}
	}

	rid := uuid.New().String()
	start := time.Now()

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &provider.RequestError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &provider.AuthError{Provider: providerName, Status: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &provider.RequestError{Provider: providerName, Status: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", &provider.RequestError{Provider: providerName, Status: resp.StatusCode, Message: apiResp.Error.Type + ": " + apiResp.Error.Message}
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", &provider.EmptyResultError{Provider: providerName}
	}

	elapsed := time.Since(start)
	c.Stats.Record(elapsed.Milliseconds())
	c.log.Info("llm.complete",
		"req_id", rid,
		"model", c.model,
		"prompt_len", len(req.System)+len(req.User),
		"completion_len", len(apiResp.Choices[0].Message.Content),
		"duration_ms", elapsed.Milliseconds(),
	)
	return apiResp.Choices[0].Message.Content, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
