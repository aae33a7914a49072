package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sheet-grader/api/internal/config"
	"sheet-grader/api/internal/engines"
	"sheet-grader/api/internal/grader"
	"sheet-grader/api/internal/handle"
	"sheet-grader/api/internal/httpserver"
	"sheet-grader/api/internal/ocr"
	"sheet-grader/api/internal/telegram"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
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

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot: bot,
		Grader: grader.New(engs, logger, grader.Options{
			Timeout:   cfg.InferenceTimeout,
			MaxPixels: cfg.MaxImagePixels,
		}),
		EngManager: ocr.NewManager(engs),
		Log:        logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handle.Healthz)

	addr := "0.0.0.0:" + cfg.Port

	// Webhook when a public URL is configured, long polling otherwise.
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := registerWebhook(ctx, bot, r, mux, webhookURL, logger); err != nil {
			log.Fatalf("webhook: %v", err)
		}
	} else {
		go runPolling(ctx, bot, logger, func(upd tgbotapi.Update) {
			go r.HandleUpdate(ctx, upd)
		})
	}

	logger.Info("bot.start", "user", bot.Self.UserName, "webhook", cfg.WebhookURL != "")
	if err := httpserver.Run(ctx, addr, mux, logger); err != nil {
		logger.Error("bot.stopped", "error", err)
		os.Exit(1)
	}
}

// ---------------- Modes -----------------

func registerWebhook(ctx context.Context, bot *tgbotapi.BotAPI, r *telegram.Router, mux *http.ServeMux, baseURL string, logger *slog.Logger) error {
	// secret webhook path
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			logger.Warn("webhook.bad_update", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		go r.HandleUpdate(ctx, *upd)
	})
	logger.Info("webhook.registered", "path", path)
	return nil
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, logger *slog.Logger, dispatch func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			logger.Info("polling.stopped")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			logger.Warn("polling.error", "error", err, "retry_in", d)
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			dispatch(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// FNV-1a, stable per token; not a secret by itself
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
