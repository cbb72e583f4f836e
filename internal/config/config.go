package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DocintakeAPIKey string

	// Mistral OCR
	MistralBaseURL string
	MistralAPIKey  string
	OCRModel       string
	OCRTimeout     time.Duration

	// Groq completions
	GroqBaseURL string
	GroqAPIKey  string
	GroqModel   string
	LLMTimeout  time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Chat context budget
	ChatContextMaxChars int

	// Session lifetime
	SessionTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocintakeAPIKey: os.Getenv("DOCINTAKE_API_KEY"),

		MistralBaseURL: envOr("MISTRAL_BASE_URL", "https://api.mistral.ai"),
		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		OCRModel:       envOr("OCR_MODEL", "mistral-ocr-latest"),
		OCRTimeout:     envDuration("OCR_TIMEOUT", 60*time.Second),

		GroqBaseURL: envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GroqModel:   envOr("GROQ_MODEL", "llama-3.3-70b-versatile"),
		LLMTimeout:  envDuration("LLM_TIMEOUT", 60*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		ChatContextMaxChars: envInt("CHAT_CONTEXT_MAX_CHARS", 24000),

		SessionTTL: envDuration("SESSION_TTL", 2*time.Hour),
	}

	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 60 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.ChatContextMaxChars <= 0 {
		cfg.ChatContextMaxChars = 24000
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocintakeAPIKey == "" {
		return fmt.Errorf("DOCINTAKE_API_KEY is required")
	}
	if c.MistralAPIKey == "" {
		return fmt.Errorf("MISTRAL_API_KEY is required")
	}
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
