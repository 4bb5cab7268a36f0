// ConsoleBot - chat relay server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/consolebot/internal/agent"
	"github.com/ashureev/consolebot/internal/api"
	"github.com/ashureev/consolebot/internal/config"
	"github.com/ashureev/consolebot/internal/live"
	"github.com/ashureev/consolebot/internal/middleware"
	"github.com/ashureev/consolebot/internal/retention"
	"github.com/ashureev/consolebot/internal/store"
	"github.com/ashureev/consolebot/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "model", agent.Model)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.Usage.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.Usage.DBPath)

	client, err := agent.NewOpenRouterClient(agent.OpenRouterConfig{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		AppURL:  cfg.Upstream.AppURL,
		Title:   cfg.Upstream.Title,
		Timeout: cfg.Upstream.Timeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize upstream client", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	svc := agent.NewService(client)
	sm := live.NewSessionManager()

	// Initialize handlers.
	agentHandler := agent.NewHandler(svc, repo, cfg.MaxRequestBodySize)
	healthHandler := api.NewHealthHandler(repo, agent.Model)
	wsHandler := live.NewWebSocketHandler(live.ServiceRelay{Service: agentHandler.GetService()}, sm, originPatterns(cfg.AllowedOrigins))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler.RegisterHealth(r)
	agentHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// No WriteTimeout: relay calls wait on the provider and WebSocket
	// sessions are long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := retention.StartWorker(ctx, repo, cfg.Usage.Retention, cfg.Usage.CleanupInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...", "live_sessions", sm.Count())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	<-workerDone

	slog.Info("Server stopped successfully")
}

// originPatterns converts allowed CORS origins into WebSocket origin host
// patterns. A nil result restricts upgrades to same-origin requests.
func originPatterns(allowed []string) []string {
	var patterns []string
	for _, o := range allowed {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}
