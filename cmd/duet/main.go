package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fabiogreco/duet/internal/assistant"
	"github.com/fabiogreco/duet/internal/auth"
	"github.com/fabiogreco/duet/internal/blob"
	"github.com/fabiogreco/duet/internal/chat"
	"github.com/fabiogreco/duet/internal/config"
	"github.com/fabiogreco/duet/internal/httpapi"
	"github.com/fabiogreco/duet/internal/observability"
	"github.com/fabiogreco/duet/internal/realtime"
)

func main() {
	// Local development keeps secrets in a .env file; deployments set real
	// environment variables and no file exists.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := chat.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("chat store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("chat store: in-memory (DATABASE_URL not set, data is lost on restart)")
	} else {
		log.Printf("chat store: postgres")
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	registry := realtime.NewRegistry()
	realtime.NewBroadcaster(registry, metrics)
	fanout := realtime.NewFanout(registry, metrics)

	var orchestrator *assistant.Orchestrator
	if cfg.AssistantID != "" {
		user, err := assistant.EnsureUser(ctx, store, assistant.BootstrapConfig{
			AssistantID: cfg.AssistantID,
			Name:        cfg.AssistantName,
			AvatarURL:   cfg.AssistantAvatarURL,
		})
		if err != nil {
			log.Printf("assistant disabled: %v", err)
		} else {
			var provider assistant.Provider
			if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
				provider = assistant.NewOpenAIProvider(assistant.OpenAIConfig{
					APIKey:       cfg.OpenAIAPIKey,
					BaseURL:      cfg.OpenAIBaseURL,
					SystemPrompt: cfg.AssistantSystemPrompt,
					Temperature:  cfg.AssistantTemperature,
					MaxTokens:    cfg.AssistantMaxTokens,
				})
				log.Printf("assistant: %s, model %s", user.FullName, cfg.AssistantModel)
			} else {
				log.Printf("assistant: %s, no OPENAI_API_KEY, replies with a fixed notice", user.FullName)
			}
			orchestrator = assistant.NewOrchestrator(store, fanout, provider, metrics, assistant.OrchestratorConfig{
				AssistantID:    cfg.AssistantID,
				Model:          cfg.AssistantModel,
				FallbackModels: cfg.AssistantFallbackModels,
				HistoryLimit:   cfg.AssistantHistoryLimit,
			})
		}
	}

	uploader := blob.New(cfg.BlobUploadURL, cfg.BlobUploadKey)
	if _, disabled := uploader.(blob.Disabled); disabled {
		log.Printf("attachment uploads disabled (BLOB_UPLOAD_URL not set)")
	}

	api := httpapi.New(cfg, store, tokens, registry, fanout, orchestrator, uploader, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
