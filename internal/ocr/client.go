package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docintake/internal/encode"
	"github.com/dgallion1/docintake/internal/provider"
)

const providerName = "mistral-ocr"

// Client calls the Mistral OCR API to extract text from uploaded documents.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/ocr",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type ocrDocument struct {
	Type        string `json:"type"`
	ImageURL    string `json:"image_url,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractImage sends an encoded image and returns the extracted text.
func (c *Client) ExtractImage(ctx context.Context, enc encode.Encoded) (string, error) {
	return c.extract(ctx, ocrDocument{Type: "image_url", ImageURL: enc.DataURL()})
}

// ExtractPDF sends raw PDF bytes as an inline document and returns the
// extracted text.
func (c *Client) ExtractPDF(ctx context.Context, data []byte) (string, error) {
	url := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
	return c.extract(ctx, ocrDocument{Type: "document_url", DocumentURL: url})
}

func (c *Client) extract(ctx context.Context, doc ocrDocument) (string, error) {
	if c.apiKey == "" {
		return "", &provider.AuthError{Provider: providerName}
	}

	rid := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(ocrRequest{Model: c.model, Document: doc})
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

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &provider.AuthError{Provider: providerName, Status: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &provider.RequestError{Provider: providerName, Status: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp ocrResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	for _, page := range apiResp.Pages {
		if strings.TrimSpace(page.Markdown) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(page.Markdown)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &provider.EmptyResultError{Provider: providerName}
	}

	c.log.Info("ocr.extract",
		"req_id", rid,
		"model", c.model,
		"pages", len(apiResp.Pages),
		"text_len", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
