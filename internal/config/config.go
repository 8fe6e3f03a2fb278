package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cfg is the global configuration loaded at startup.
var Cfg Config

// Config holds all application configuration.
type Config struct {
	// Server
	Port       string
	WebhookURL string

	// Telegram
	BotToken string
	AdminID  int64

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Business identity (shown in messages and the free-tier footer)
	BusinessName    string
	BusinessEmail   string
	SupportUsername string

	// Payments
	UPIID          string
	CashfreeKey    string
	CashfreeSecret string
	PremiumPrice   float64
	PremiumDays    int

	// Storage
	DBPath string

	// Credits economy
	SignupBonus           float64
	DailyReward           float64
	MonthlyResetBonus     float64
	CreditCostPerChat     float64
	EarningPerInteraction float64

	// Admin HTTP surface
	AdminSecret    string
	RateLimitRPS   int
	RateLimitBurst int
	GzipEnabled    bool

	// Background jobs
	SchedulerEnabled bool
	LedgerRetention  time.Duration

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	// Logging
	LogLevel string
}

// Load reads .env (if present) and populates Cfg from environment variables.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables")
	}

	Cfg = Config{
		Port:       envOr("PORT", "8080"),
		WebhookURL: os.Getenv("WEBHOOK_URL"),

		BotToken: os.Getenv("BOT_TOKEN"),
		AdminID:  envInt64("ADMIN_ID", 0),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o-mini"),

		BusinessName:    envOr("BUSINESS_NAME", "Creator Bot"),
		BusinessEmail:   os.Getenv("BUSINESS_EMAIL"),
		SupportUsername: os.Getenv("SUPPORT_USERNAME"),

		UPIID:          os.Getenv("UPI_ID"),
		CashfreeKey:    os.Getenv("CASHFREE_KEY"),
		CashfreeSecret: os.Getenv("CASHFREE_SECRET"),
		PremiumPrice:   envFloat64("PREMIUM_PRICE", 199.0),
		PremiumDays:    envInt("PREMIUM_DAYS", 30),

		DBPath: envOr("DB_PATH", "creatorbot.db"),

		SignupBonus:           envFloat64("SIGNUP_BONUS", 10.0),
		DailyReward:           envFloat64("DAILY_REWARD", 2.0),
		MonthlyResetBonus:     envFloat64("MONTHLY_RESET_BONUS", 50.0),
		CreditCostPerChat:     envFloat64("CREDIT_COST_PER_CHAT", 1.0),
		EarningPerInteraction: envFloat64("EARNING_PER_INTERACTION", 0.01),

		AdminSecret:    os.Getenv("ADMIN_SECRET"),
		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 30),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 60),
		GzipEnabled:    envBool("GZIP_ENABLED", true),

		SchedulerEnabled: envBool("SCHEDULER_ENABLED", true),
		LedgerRetention:  envDuration("LEDGER_RETENTION", 90*24*time.Hour),

		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: envOr("SENTRY_ENVIRONMENT", "production"),
		SentryRelease:     envOr("SENTRY_RELEASE", "creatorbot@1.0.0"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if Cfg.BotToken == "" {
		log.Println("config: BOT_TOKEN not set — the bot cannot start without it")
	}
	if Cfg.OpenAIAPIKey == "" {
		log.Println("config: OPENAI_API_KEY not set — AI features disabled")
	}

	log.Printf("config: loaded (port=%s, webhook=%v, scheduler=%v, model=%s)",
		Cfg.Port, Cfg.WebhookURL != "", Cfg.SchedulerEnabled, Cfg.OpenAIModel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat64(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
