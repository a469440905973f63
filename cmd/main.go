// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/assistant"
	"github.com/uppalapadu/watersafe/internal/auth"
	"github.com/uppalapadu/watersafe/internal/config"
	"github.com/uppalapadu/watersafe/internal/database"
	"github.com/uppalapadu/watersafe/internal/handler"
	"github.com/uppalapadu/watersafe/internal/logger"
	"github.com/uppalapadu/watersafe/internal/repository"
	"github.com/uppalapadu/watersafe/internal/seed"
	"github.com/uppalapadu/watersafe/internal/service"
	"github.com/uppalapadu/watersafe/internal/telemetry"
)

const serviceName = "watersafe"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "watersafe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// ── 1. Configuration and logging ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	// ── 2. Open the store ─────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("store ready", zap.String("driver", cfg.Driver))

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	svc := service.New(store, log)
	if cfg.SeedDemo {
		if err := seed.Demo(ctx, svc, time.Now().UTC(), log.Named("seed")); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TTL)
	guide := assistant.New(assistant.Config{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.BaseURL,
		TextModel:  cfg.Gemini.TextModel,
		ImageModel: cfg.Gemini.ImageModel,
		HTTPClient: &http.Client{Timeout: cfg.Gemini.Timeout},
	})
	if _, disabled := guide.(assistant.Disabled); disabled {
		log.Warn("GEMINI_API_KEY not set, assistant endpoints will return 503")
	}

	h := handler.New(svc, issuer, guide, log.Named("http"))

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.NewRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return repository.NewPostgresStore(pool), nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return repository.NewSQLiteStore(db), nil
	default:
		return repository.NewMemoryStore(), nil
	}
}
