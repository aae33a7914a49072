package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	DefaultEngine string

	InferenceTimeout time.Duration
	MaxUploadBytes   int64
	MaxImagePixels   int

	StaticDir   string
	CORSOrigins []string
	LogLevel    slog.Level

	TelegramBotToken string
	WebhookURL       string
}

// LoadDotEnv reads .env outside production. A missing file is fine.
func LoadDotEnv() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("missing required env %s", k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	geminiKey, err := mustEnv("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey:  geminiKey,
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DefaultEngine: strings.ToLower(getEnv("DEFAULT_ENGINE", "gemini")),

		StaticDir: getEnv("STATIC_DIR", "static"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}

	if cfg.InferenceTimeout, err = time.ParseDuration(getEnv("INFERENCE_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("bad INFERENCE_TIMEOUT: %w", err)
	}
	if cfg.InferenceTimeout < 0 {
		return nil, fmt.Errorf("bad INFERENCE_TIMEOUT: negative duration %s", cfg.InferenceTimeout)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "20971520"), 10, 64); err != nil || cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("bad MAX_UPLOAD_BYTES %q", os.Getenv("MAX_UPLOAD_BYTES"))
	}
	if cfg.MaxImagePixels, err = strconv.Atoi(getEnv("MAX_IMAGE_PIXELS", "18000000")); err != nil || cfg.MaxImagePixels < 0 {
		return nil, fmt.Errorf("bad MAX_IMAGE_PIXELS %q", os.Getenv("MAX_IMAGE_PIXELS"))
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("bad LOG_LEVEL: %w", err)
	}

	for _, o := range strings.Split(getEnv("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	switch cfg.DefaultEngine {
	case "gemini":
	case "gpt", "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("DEFAULT_ENGINE=%s requires OPENAI_API_KEY", cfg.DefaultEngine)
		}
	default:
		return nil, fmt.Errorf("bad DEFAULT_ENGINE %q: use gemini or gpt", cfg.DefaultEngine)
	}

	return cfg, nil
}

// Logger builds the process logger.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.LogLevel}))
}
