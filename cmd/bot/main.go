package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	logger := newLogger(cfg)

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

	generator := replicate.New(replicate.Options{
		Token:        cfg.ReplicateToken,
		BaseURL:      cfg.ReplicateBaseURL,
		Version:      cfg.ReplicateVersion,
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.GenerateTimeout,
		HTTPClient:   httpClient,
		Logger:       logger,
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
		Generator: generator,
		Logger:    logger,
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

	logger.Info("bot started", "username", tg.Username())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	sem := make(chan struct{}, cfg.MaxConcurrent)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			}(update)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
