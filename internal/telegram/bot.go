package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"creatorbot/internal/ai"
	"creatorbot/internal/config"
	"creatorbot/internal/logger"
	"creatorbot/internal/payments"
	sentryutil "creatorbot/internal/sentry"
	"creatorbot/internal/store"
	"creatorbot/internal/wallet"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wires the Telegram API to the wallet, payments and AI services.
type Bot struct {
	api      *tgbotapi.BotAPI
	store    *store.Store
	wallet   *wallet.Wallet
	payments *payments.Service
	ai       *ai.Client

	// updates carries webhook-delivered updates into the dispatch loop.
	updates chan tgbotapi.Update

	// last generated script per Telegram user, for /export.
	scriptsMu sync.Mutex
	scripts   map[int64]string
}

// New authenticates against the Bot API and returns a ready bot.
func New(s *store.Store, w *wallet.Wallet, p *payments.Service, aiClient *ai.Client) (*Bot, error) {
	if config.Cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram: BOT_TOKEN missing")
	}
	api, err := tgbotapi.NewBotAPI(config.Cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot init: %w", err)
	}
	logger.Info("telegram: authorized", map[string]interface{}{"username": api.Self.UserName})

	return &Bot{
		api:      api,
		store:    s,
		wallet:   w,
		payments: p,
		ai:       aiClient,
		updates:  make(chan tgbotapi.Update, 64),
		scripts:  make(map[int64]string),
	}, nil
}

// Run consumes updates until ctx is cancelled. In webhook mode the updates
// arrive through WebhookHandler; otherwise long polling is used.
func (b *Bot) Run(ctx context.Context) {
	var updates tgbotapi.UpdatesChannel
	if config.Cfg.WebhookURL != "" {
		if err := b.registerWebhook(); err != nil {
			// The bot still serves updates already queued, so this is a
			// warning rather than a fatal error.
			logger.Error("telegram: webhook registration failed", map[string]interface{}{"error": err.Error()})
			sentryutil.CaptureMessage("webhook registration failed: "+err.Error(),
				sentryutil.LevelWarning(), map[string]string{"component": "telegram"})
		}
		updates = b.updates
	} else {
		// Drop a possibly stale webhook so polling works.
		if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("telegram: webhook cleanup failed", map[string]interface{}{"error": err.Error()})
		}
		cfg := tgbotapi.NewUpdate(0)
		cfg.Timeout = 60
		updates = b.api.GetUpdatesChan(cfg)
	}

	logger.Info("telegram: update loop started", map[string]interface{}{
		"mode": map[bool]string{true: "webhook", false: "polling"}[config.Cfg.WebhookURL != ""],
	})

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			go b.dispatch(ctx, update)
		}
	}
}

// WebhookPath returns the route the webhook receiver is mounted on. The
// token in the path is what authenticates Telegram's requests.
func WebhookPath() string {
	return "/bot/" + config.Cfg.BotToken
}

// WebhookHandler decodes incoming webhook updates and feeds the dispatch loop.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn("telegram: bad webhook payload", map[string]interface{}{"error": err.Error()})
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		select {
		case b.updates <- update:
		default:
			logger.Warn("telegram: update queue full, dropping", nil)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (b *Bot) registerWebhook() error {
	url := strings.TrimRight(config.Cfg.WebhookURL, "/") + WebhookPath()
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	if _, err := b.api.Request(wh); err != nil {
		return err
	}
	logger.Info("telegram: webhook set", map[string]interface{}{"url": config.Cfg.WebhookURL})
	return nil
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.heal(ctx, "callback", update.CallbackQuery.Message, func() error {
			return b.handleCallback(ctx, update.CallbackQuery)
		})
	case update.Message == nil:
		// Edits, channel posts etc. are ignored.
	case update.Message.IsCommand():
		b.heal(ctx, "cmd_"+update.Message.Command(), update.Message, func() error {
			return b.handleCommand(ctx, update.Message)
		})
	case update.Message.Document != nil:
		b.heal(ctx, "document", update.Message, func() error {
			return b.handleDocument(ctx, update.Message)
		})
	case update.Message.Text != "":
		b.heal(ctx, "chat", update.Message, func() error {
			return b.handleChat(ctx, update.Message)
		})
	}
}

// send delivers an HTML-formatted message, retrying without parse mode if
// Telegram rejects the markup.
func (b *Bot) send(chatID int64, htmlText string) {
	msg := tgbotapi.NewMessage(chatID, htmlText)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		plain := tgbotapi.NewMessage(chatID, htmlText)
		if _, err := b.api.Send(plain); err != nil {
			logger.Error("telegram: send failed", map[string]interface{}{"chat": chatID, "error": err.Error()})
		}
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, htmlText string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, htmlText)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("telegram: send failed", map[string]interface{}{"chat": chatID, "error": err.Error()})
	}
}

func (b *Bot) rememberScript(tgID int64, script string) {
	b.scriptsMu.Lock()
	b.scripts[tgID] = script
	b.scriptsMu.Unlock()
}

func (b *Bot) lastScript(tgID int64) (string, bool) {
	b.scriptsMu.Lock()
	defer b.scriptsMu.Unlock()
	s, ok := b.scripts[tgID]
	return s, ok
}
