// Webhook transport for the bot: Telegram pushes updates to POST
// /webhook instead of the bot long-polling for them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/agrabio134/suimemebot/internal/admission"
	"github.com/agrabio134/suimemebot/internal/config"
	"github.com/agrabio134/suimemebot/internal/handlers"
	"github.com/agrabio134/suimemebot/internal/httpclient"
	"github.com/agrabio134/suimemebot/internal/meme"
	"github.com/agrabio134/suimemebot/internal/replicate"
	"github.com/agrabio134/suimemebot/internal/store"
	"github.com/agrabio134/suimemebot/internal/telegram"
	"github.com/agrabio134/suimemebot/internal/websearch"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if cfg.WebhookURL == "" {
		panic("WEBHOOK_URL is required for webhook mode")
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	if err := store.EnsureDir(cfg.SettingsPath); err != nil {
		logger.Error("settings dir init failed", "err", err)
		os.Exit(1)
	}
	settings, err := store.New(store.Options{
		Path:   cfg.SettingsPath,
		Logger: logger,
	})
	if err != nil {
		logger.Error("settings store init failed", "err", err)
		os.Exit(1)
	}

	search := websearch.New(websearch.Options{
		BaseURL:    cfg.SearchBaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	// Updates are handled on up to MaxConcurrent goroutines, so the
	// resolver and synthesizer are left on the locked package-level
	// rand source instead of sharing a *rand.Rand.
	pipeline := meme.NewPipeline(meme.PipelineOptions{
		Gate: admission.NewGate(admission.Options{
			Window:      cfg.RateLimitWindow,
			UserLimit:   cfg.UserRateLimit,
			GlobalLimit: cfg.GlobalRateLimit,
			Cooldown:    cfg.Cooldown,
			MinGap:      cfg.MinRequestGap,
			Logger:      logger,
		}),
		Themes: meme.NewResolver(meme.ResolverOptions{
			Fetch:  meme.NewHTTPFetcher(httpClient),
			Logger: logger,
		}),
		Classifier: meme.NewClassifier(meme.ClassifierOptions{
			Enrich: search.EnrichTerm,
			Logger: logger,
		}),
		Synth: meme.NewSynthesizer(meme.SynthesizerOptions{
			Logger: logger,
		}),
		Generator: replicate.New(replicate.Options{
			Token:        cfg.ReplicateToken,
			BaseURL:      cfg.ReplicateBaseURL,
			Version:      cfg.ReplicateVersion,
			PollInterval: cfg.PollInterval,
			MaxWait:      cfg.GenerateTimeout,
			HTTPClient:   httpClient,
			Logger:       logger,
		}),
		Logger: logger,
	})

	handler := handlers.New(handlers.Options{
		Telegram:    tg,
		Pipeline:    pipeline,
		Store:       settings,
		Search:      search,
		Logger:      logger,
		TypingDelay: cfg.TypingDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tg.SetWebhook(cfg.WebhookURL); err != nil {
		logger.Error("set webhook failed", "url", cfg.WebhookURL, "err", err)
		os.Exit(1)
	}
	logger.Info("webhook set", "url", cfg.WebhookURL)

	sem := make(chan struct{}, cfg.MaxConcurrent)

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("handle update failed", "err", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("webhook server started", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
