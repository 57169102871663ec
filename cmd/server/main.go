package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/examai/backend/internal/ai"
	"github.com/examai/backend/internal/api"
	"github.com/examai/backend/internal/infrastructure/config"
	"github.com/examai/backend/internal/logger"
	"github.com/examai/backend/internal/service"
	"github.com/examai/backend/internal/store"

	_ "github.com/examai/backend/docs" // swagger docs
)

// @title           ExamAI API
// @version         1.0
// @description     Exam practice backend: question banks, timed quizzes with negative marking, and an AI tutor.

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// ── Dependencies ────────────────────────────────────────────────
	ctx := context.Background()

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open storage")
	}
	st := store.New(backend, log)
	defer st.Close()

	workspace := service.NewWorkspace(st, log)
	if err := workspace.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load workspace")
	}

	quiz := service.NewQuizRunner(workspace, log, cfg.QuizTick)
	defer quiz.Close()

	var assistantOpts []service.AssistantOption
	if fallback := bootstrapAIConfig(cfg); fallback != nil {
		if err := fallback.Validate(); err != nil {
			log.Warn().Err(err).Msg("Ignoring AI settings from environment")
		} else {
			assistantOpts = append(assistantOpts, service.WithFallbackConfig(fallback))
		}
	}
	aiClient := &http.Client{Timeout: cfg.AITimeout}
	assistant := service.NewAssistant(workspace, st, aiClient, log, cfg.AIWorkers, assistantOpts...)
	defer assistant.Close()

	handler := api.NewHandler(workspace, quiz, assistant, log, cfg.AllowedOrigins)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: RequestID → Logging → CORS → mux ──────────
	chain := api.RequestID(api.Logging(log)(api.CORS(cfg.AllowedOrigins)(mux)))

	// ── Server ──────────────────────────────────────────────────────
	// No WriteTimeout: AI generation and the quiz stream outlive any fixed
	// deadline. The AI client carries its own timeout.
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           chain,
		ReadTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		quiz.Close()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}()

	log.Info().
		Str("address", cfg.ServerAddress).
		Str("storage", cfg.StorageDriver).
		Msg("Starting server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
	<-idle
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Backend, error) {
	if cfg.StorageDriver == "redis" {
		return store.NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix, log)
	}
	return store.NewSQLite(cfg.SQLitePath)
}

// bootstrapAIConfig returns the provider settings from the environment, or
// nil when none are set.
func bootstrapAIConfig(cfg *config.Config) *ai.Config {
	if cfg.AIProvider == "" {
		return nil
	}
	return &ai.Config{
		Provider: ai.ProviderKind(cfg.AIProvider),
		APIKey:   cfg.AIAPIKey,
		BaseURL:  cfg.AIBaseURL,
		Model:    cfg.AIModel,
	}
}
