// Dost - Student Wellness Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dostlabs/dost-server/internal/api"
	"github.com/dostlabs/dost-server/internal/catalog"
	"github.com/dostlabs/dost-server/internal/chat"
	"github.com/dostlabs/dost-server/internal/config"
	"github.com/dostlabs/dost-server/internal/identity"
	"github.com/dostlabs/dost-server/internal/ledger"
	"github.com/dostlabs/dost-server/internal/middleware"
	"github.com/dostlabs/dost-server/internal/oracle"
	"github.com/dostlabs/dost-server/internal/store"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
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
	slog.Info("Database connected")

	// Seed the activity catalogue on first boot. SeedActivities is a no-op
	// once the table has rows, so restarts never duplicate entries.
	bundled, err := catalog.Bundled()
	if err != nil {
		slog.Error("Failed to load bundled activities", "error", err)
		os.Exit(1)
	}
	seeded, err := repo.SeedActivities(context.Background(), bundled)
	if err != nil {
		slog.Error("Failed to seed activities", "error", err)
		os.Exit(1)
	}
	if seeded > 0 {
		slog.Info("Activity catalogue seeded", "inserted", seeded)
	}

	ledgerSvc := ledger.NewService(repo, bundled)

	// Initialize the generative backend (optional).
	var chatMgr *chat.Manager
	aiEnabled := false
	if cfg.Oracle.APIKey != "" {
		client, err := oracle.NewGeminiClient(context.Background(), oracle.GeminiConfig{
			APIKey:  cfg.Oracle.APIKey,
			Model:   cfg.Oracle.Model,
			Timeout: cfg.Oracle.Timeout,
		})
		if err != nil {
			slog.Warn("Failed to connect to Gemini, chat features will be disabled", "error", err)
		} else {
			chatMgr = chat.NewManager(repo, client, chat.NewMemoryStore())
			aiEnabled = true
			slog.Info("Gemini connected", "model", cfg.Oracle.Model)
		}
	}
	if !aiEnabled {
		slog.Info("Chat features disabled (GOOGLE_API_KEY not set or connection failed)")
	}

	handler := api.NewHandler(repo, ledgerSvc, chatMgr)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(identity.Middleware(identity.ResolverFunc(repo.GetSessionUser)))

	handler.RegisterRoutes(r)
	if aiEnabled {
		handler.RegisterChatRoutes(r)
	}

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
