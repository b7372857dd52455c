package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/quizpress/internal/api"
	"github.com/dgallion1/quizpress/internal/config"
	"github.com/dgallion1/quizpress/internal/excerpt"
	"github.com/dgallion1/quizpress/internal/generate"
	"github.com/dgallion1/quizpress/internal/layout"
	"github.com/dgallion1/quizpress/internal/parser"
	"github.com/dgallion1/quizpress/internal/pipeline"
	"github.com/dgallion1/quizpress/internal/render"
	"github.com/dgallion1/quizpress/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(os.Getenv("QUIZPRESS_ENV_FILE")); err != nil {
		log.Error("load env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	lc, err := cfg.LayoutConfig()
	if err != nil {
		log.Error("invalid layout configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rendering.
	font := render.ProbeFont(cfg.FontPath, render.DefaultProbe)
	if font.Fallback {
		log.Warn("using core pdf font", "reason", font.Reason)
	} else {
		log.Info("font loaded", "family", font.Family, "path", font.Path)
	}
	opts := render.DefaultOptions()
	opts.Measure = render.Measure(cfg.LayoutMeasure)
	opts.FontSize = cfg.FontSize
	opts.Font = font
	renderer, err := render.NewPDFRenderer(lc, opts, log)
	if err != nil {
		log.Error("create renderer", "error", err)
		os.Exit(1)
	}
	textEngine, err := layout.New(lc, nil)
	if err != nil {
		log.Error("create layout engine", "error", err)
		os.Exit(1)
	}

	// Document store.
	store := session.NewStore(cfg.SessionTTL)
	go store.Janitor(ctx, time.Minute)

	stats := generate.NewLLMStats(time.Hour)

	svcCfg := pipeline.Config{
		Provider:     cfg.LLMProvider,
		ServerAPIKey: cfg.ServerAPIKey(),
		Model:        cfg.Model(),
		Timeout:      cfg.LLMTimeout,
		Parser: parser.Options{
			MaxPages:          cfg.PDFMaxPages,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
		Excerpt: excerpt.Config{MaxChars: cfg.ExcerptMaxChars},
	}
	if cfg.LLMProvider == config.ProviderOpenAI {
		svcCfg.BaseURL = cfg.OpenAIBaseURL
	}
	svc := pipeline.NewService(svcCfg, renderer, textEngine, store, stats, log)

	if svcCfg.ServerAPIKey == "" {
		log.Warn("no server api key configured; users must supply their own", "provider", cfg.LLMProvider)
	}

	srv := api.NewServer(svc, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
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
	}()

	log.Info("starting quizpress",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"model", cfg.Model(),
		"layout_mode", lc.Mode.String(),
		"measure", cfg.LayoutMeasure,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
