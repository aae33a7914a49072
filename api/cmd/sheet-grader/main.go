package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sheet-grader/api/internal/config"
	"sheet-grader/api/internal/engines"
	"sheet-grader/api/internal/grader"
	"sheet-grader/api/internal/handle"
	"sheet-grader/api/internal/httpserver"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engs, closeEngines, err := engines.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("engines: %v", err)
	}
	defer closeEngines()

	svc := grader.New(engs, logger, grader.Options{
		Timeout:   cfg.InferenceTimeout,
		MaxPixels: cfg.MaxImagePixels,
	})
	h := handle.New(svc, logger, handle.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		StaticDir:      cfg.StaticDir,
	})

	logger.Info("sheet-grader.start",
		"default_engine", cfg.DefaultEngine,
		"gemini_model", cfg.GeminiModel,
		"openai_enabled", engs.OpenAI != nil,
	)
	if err := httpserver.Run(ctx, ":"+cfg.Port, h.Router(cfg.CORSOrigins), logger); err != nil {
		logger.Error("sheet-grader.stopped", "error", err)
		os.Exit(1)
	}
}
