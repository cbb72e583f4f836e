package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docintake/internal/analyze"
	"github.com/dgallion1/docintake/internal/api"
	"github.com/dgallion1/docintake/internal/chat"
	"github.com/dgallion1/docintake/internal/config"
	"github.com/dgallion1/docintake/internal/llm"
	"github.com/dgallion1/docintake/internal/ocr"
	"github.com/dgallion1/docintake/internal/pipeline"
	"github.com/dgallion1/docintake/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	ocrClient := ocr.NewClient(cfg.MistralBaseURL, cfg.MistralAPIKey, cfg.OCRModel, cfg.OCRTimeout, log)
	llmClient := llm.NewClient(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, cfg.LLMTimeout, log)

	// Initialize pipeline.
	analyzer := analyze.NewAnalyzer(llmClient, log)
	processor := pipeline.NewProcessor(ocrClient, analyzer, ocr.ClassifyForm, cfg.OCRTimeout, cfg.LLMTimeout, log)
	bot := chat.NewBot(llmClient, chat.ConcatBuilder{MaxChars: cfg.ChatContextMaxChars}, log)

	// Initialize sessions with TTL eviction.
	sessions := session.NewRegistry(cfg.SessionTTL)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup()
			}
		}
	}()

	// Initialize HTTP server.
	srv := api.NewServer(sessions, processor, bot, llmClient, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		ocrClient.Close()
		llmClient.Close()
	}()

	log.Info("starting docintake", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
