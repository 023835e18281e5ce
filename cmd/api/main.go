// Package main is the entry point for the webhook API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/moda-ai/moda-go/internal/config"
	"github.com/moda-ai/moda-go/internal/events"
	"github.com/moda-ai/moda-go/internal/handler"
	"github.com/moda-ai/moda-go/internal/llm"
	"github.com/moda-ai/moda-go/internal/middleware"
	"github.com/moda-ai/moda-go/internal/vapi"
	"github.com/moda-ai/moda-go/pkg/logger"
	"github.com/moda-ai/moda-go/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting webhook API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "moda-vapi-webhook", cfg.ModaEndpoint, tracing.InitOptions{
			APIKey:       cfg.ModaAPIKey,
			Insecure:     cfg.TracingInsecure,
			DisableBatch: cfg.DebugTracing,
		})
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS for processed-call events, when configured
	var eventsClient *events.Client
	var notifier vapi.Notifier
	if cfg.NATSURL != "" {
		eventsClient, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, event publishing disabled", zap.Error(err))
		} else {
			defer eventsClient.Close()
			publisher := events.NewPublisher(eventsClient)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure event stream", zap.Error(err))
			}
			notifier = publisher
		}
	}

	// Initialize the span processor
	processor := vapi.NewProcessor(tracing.NewOTelSink(), notifier, log)

	// Initialize the LLM client when a provider key is configured
	var llmClient llm.Client
	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := cfg.AnthropicAPIKey
	if provider == llm.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	if apiKey != "" {
		llmClient, err = llm.NewClient(provider, apiKey, tracing.NewOTelSink())
		if err != nil {
			log.Warn("failed to create LLM client, completions disabled", zap.Error(err))
		}
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(eventsClient)
	webhookHandler := handler.NewWebhookHandler(processor, log)
	completionHandler := handler.NewCompletionHandler(llmClient, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Vapi-Secret"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Webhook routes with authentication and rate limiting
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.WebhookAuth(middleware.WebhookAuthConfig{
			Secret:    cfg.VapiSecret,
			JWTSecret: cfg.JWTSecret,
		}))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/vapi", webhookHandler.Vapi)
	})

	// Completion routes sit behind the same credentials as the webhook
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.WebhookAuth(middleware.WebhookAuthConfig{
			Secret:    cfg.VapiSecret,
			JWTSecret: cfg.JWTSecret,
		}))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat/completions", completionHandler.Chat)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
