package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/harvest/api"
	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/pipeline"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/session"
	"github.com/use-agent/harvest/store"
	"github.com/use-agent/harvest/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("harvest starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchMode", cfg.Scraper.FetchMode,
		"defaultModel", cfg.LLM.DefaultModel,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cleaner.NewCleaner())
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4. Content cache and store connector ────────────────────────
	cc, closeCache, err := cache.Open(context.Background(), cfg.Cache)
	if err != nil {
		slog.Error("failed to initialise cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	stores := store.NewConnector(cfg.Store.MaxConns, cc)
	defer stores.Close()

	// ── 5. Extraction caller, sessions and runner ───────────────────
	caller := llm.NewCaller(&http.Client{Timeout: cfg.LLM.Timeout}, cfg.LLM.BaseURLs)

	sessions := session.NewManager(cfg.Session.IdleTTL)
	defer sessions.Close()

	runner := pipeline.NewRunner(pipeline.RunnerConfig{
		Content:        sc,
		Extractor:      caller,
		Stores:         stores,
		Notifier:       webhook.NewNotifier(cfg.Webhook.Secret),
		EnvCredentials: cfg.Credentials,
		DefaultModel:   cfg.LLM.DefaultModel,
	})

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(api.Deps{
		Stats:    sc,
		Sessions: sessions,
		Runner:   runner,
		Stores:   stores,
	}, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Launches are synchronous; give them time to finish and record.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("harvest stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
