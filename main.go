package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creatorbot/internal/ai"
	"creatorbot/internal/config"
	"creatorbot/internal/jobs"
	"creatorbot/internal/logger"
	"creatorbot/internal/middleware"
	"creatorbot/internal/payments"
	sentryutil "creatorbot/internal/sentry"
	"creatorbot/internal/store"
	"creatorbot/internal/telegram"
	"creatorbot/internal/wallet"
	"creatorbot/internal/web"
)

func main() {
	// Load configuration from .env and environment variables
	config.Load()
	logger.Init(config.Cfg.LogLevel)

	// Initialize Sentry (non-blocking if SENTRY_DSN is empty)
	sentryutil.Init()
	defer sentryutil.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := store.Open(config.Cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	// Services
	w := wallet.New(db)
	pay := payments.New(db, w)
	aiClient := ai.NewFromConfig()

	// Telegram bot
	bot, err := telegram.New(db, w, pay, aiClient)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	go bot.Run(ctx)

	// Background jobs
	jobs.New(w).Start(ctx)

	// Admin API routes
	admin := web.NewAdminAPI(db)
	mux := http.NewServeMux()
	mux.HandleFunc("/", web.Index)
	mux.HandleFunc("/admin/health", admin.Health)
	mux.HandleFunc("/admin/treasury", admin.Treasury)
	mux.HandleFunc("/admin/earnings", admin.Earnings)
	mux.HandleFunc("/admin/ledger", admin.Ledger)
	mux.HandleFunc("/admin/orders", admin.Orders)
	mux.HandleFunc("/admin/transfer", admin.Transfer)
	mux.HandleFunc("/admin/", web.NotFound)

	// Telegram webhook receiver (only useful when WEBHOOK_URL is set, but
	// mounting it unconditionally is harmless: the path contains the token).
	mux.HandleFunc(telegram.WebhookPath(), bot.WebhookHandler())

	// Rate limiter from config
	limiter := web.NewRateLimiter(config.Cfg.RateLimitRPS, config.Cfg.RateLimitBurst, time.Second)

	// Wrap with middleware: Recovery → SecurityHeaders → Gzip (if enabled) → Rate Limiter
	var handler http.Handler = limiter.Middleware("/bot/", mux)
	if config.Cfg.GzipEnabled {
		handler = middleware.Gzip(handler)
	}
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.Recovery(handler)

	server := &http.Server{
		Addr:              ":" + config.Cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("http: listening", map[string]interface{}{"port": config.Cfg.Port})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http: %v", err)
	}
}
