package telegram

import (
	"context"
	"time"

	"creatorbot/internal/logger"
	sentryutil "creatorbot/internal/sentry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const healRetries = 2

// heal runs a handler with retries. Failures are written to the ledger for
// admin inspection, and a best-effort AI debugging suggestion is stored as
// an admin action. After the final failure the user gets an apology.
func (b *Bot) heal(ctx context.Context, name string, msg *tgbotapi.Message, fn func() error) {
	var lastErr error
	for attempt := 1; attempt <= healRetries+1; attempt++ {
		if err := fn(); err == nil {
			return
		} else {
			lastErr = err
		}

		logger.Error("telegram: handler failed", map[string]interface{}{
			"handler": name, "attempt": attempt, "error": lastErr.Error(),
		})
		if err := b.store.CreditLedger(ctx, 0, 0, "error:"+name,
			map[string]interface{}{"err": lastErr.Error(), "attempt": attempt}); err != nil {
			logger.Warn("telegram: failed to log handler error", map[string]interface{}{"error": err.Error()})
		}

		if b.ai.Enabled() {
			sctx, cancel := context.WithTimeout(ctx, 20*time.Second)
			suggestion, err := b.ai.DebugSuggestion(sctx, name, lastErr.Error())
			cancel()
			if err == nil && suggestion != "" {
				if err := b.store.AppendAdminAction(ctx, "self_heal_suggestion",
					map[string]interface{}{"handler": name, "suggestion": suggestion}); err != nil {
					logger.Warn("telegram: suggestion not stored", map[string]interface{}{"error": err.Error()})
				}
			}
		}

		if attempt <= healRetries {
			select {
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			case <-ctx.Done():
				return
			}
		}
	}

	sentryutil.CaptureError(lastErr, map[string]string{"handler": name})
	logger.Error("telegram: handler permanently failed", map[string]interface{}{
		"handler": name, "error": lastErr.Error(),
	})
	if msg != nil {
		b.send(msg.Chat.ID, "⚠️ Something went wrong and couldn't be auto-fixed. The admin has been notified.")
	}
}
