package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/logger"
	"creatorbot/internal/models"
	"creatorbot/internal/store"
)

// ErrInsufficientCredits is returned when a charge cannot be covered.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrAlreadyClaimed is returned when the daily reward was already taken today.
var ErrAlreadyClaimed = errors.New("daily reward already claimed")

// Wallet implements the credits economy on top of the store.
type Wallet struct {
	store *store.Store
}

func New(s *store.Store) *Wallet {
	return &Wallet{store: s}
}

// Signup registers the user if missing, grants the signup bonus and records
// the monetization earning. Returns the user and whether it was created.
func (w *Wallet) Signup(ctx context.Context, tgID int64, firstName, username string) (models.User, bool, error) {
	u, created, err := w.store.CreateUser(ctx, tgID, firstName, username, 0)
	if err != nil {
		return models.User{}, false, err
	}
	if !created {
		return u, false, nil
	}

	if err := w.store.CreditLedger(ctx, u.ID, config.Cfg.SignupBonus, models.EventSignupBonus,
		map[string]interface{}{"bonus": config.Cfg.SignupBonus}); err != nil {
		return u, true, err
	}
	u.Credits += config.Cfg.SignupBonus
	if err := w.store.RecordEarning(ctx, "signup", config.Cfg.EarningPerInteraction,
		map[string]interface{}{"tg_id": tgID}); err != nil {
		logger.Warn("wallet: signup earning not recorded", map[string]interface{}{"tg_id": tgID, "error": err.Error()})
	}
	return u, true, nil
}

// User fetches an account by Telegram ID.
func (w *Wallet) User(ctx context.Context, tgID int64) (models.User, error) {
	return w.store.UserByTgID(ctx, tgID)
}

// ClaimDaily grants the daily reward once per UTC day.
func (w *Wallet) ClaimDaily(ctx context.Context, tgID int64, now time.Time) (float64, error) {
	u, err := w.store.UserByTgID(ctx, tgID)
	if err != nil {
		return 0, err
	}
	today := now.UTC().Format("2006-01-02")
	if u.LastDaily == today {
		return 0, ErrAlreadyClaimed
	}
	if err := w.store.SetLastDaily(ctx, tgID, today); err != nil {
		return 0, err
	}
	if err := w.store.CreditLedger(ctx, u.ID, config.Cfg.DailyReward, models.EventDailyReward,
		map[string]interface{}{"reward": config.Cfg.DailyReward}); err != nil {
		return 0, err
	}
	if err := w.store.RecordEarning(ctx, "daily_claim", config.Cfg.EarningPerInteraction, nil); err != nil {
		logger.Warn("wallet: daily earning not recorded", map[string]interface{}{"error": err.Error()})
	}
	return config.Cfg.DailyReward, nil
}

// ChargeChat deducts the per-chat cost for an AI interaction. Premium users
// chat for free. The event parameter distinguishes chat from script usage.
func (w *Wallet) ChargeChat(ctx context.Context, u models.User, event string, meta map[string]interface{}) error {
	if u.Premium(time.Now()) {
		return nil
	}
	cost := config.Cfg.CreditCostPerChat
	if u.Credits < cost {
		return ErrInsufficientCredits
	}
	if err := w.store.CreditLedger(ctx, u.ID, -cost, event, meta); err != nil {
		return err
	}
	if err := w.store.RecordEarning(ctx, "chat_interaction", config.Cfg.EarningPerInteraction,
		map[string]interface{}{"tg_id": u.TgID}); err != nil {
		logger.Warn("wallet: interaction earning not recorded", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// RecordResponse appends a zero-amount ledger entry noting an AI reply.
func (w *Wallet) RecordResponse(ctx context.Context, userID int64, replyLen int) {
	if err := w.store.CreditLedger(ctx, userID, 0, models.EventChatResponse,
		map[string]interface{}{"len": replyLen}); err != nil {
		logger.Warn("wallet: response not recorded", map[string]interface{}{"error": err.Error()})
	}
}

// SettleTopUp marks the order paid and credits the paid amount to the user's
// balance in one transaction. A failure leaves the order pending so the
// approval can be retried.
func (w *Wallet) SettleTopUp(ctx context.Context, userID int64, amount float64, orderID string) error {
	return w.store.SettleCreditOrder(ctx, orderID, userID, amount,
		map[string]interface{}{"order_id": orderID})
}

// SettlePremium marks the order paid and extends the user's premium period by
// the configured number of days, starting from now or the current expiry,
// whichever is later. Flip and grant happen in one transaction.
func (w *Wallet) SettlePremium(ctx context.Context, u models.User, orderID string) (time.Time, error) {
	start := time.Now()
	if u.PremiumUntil.After(start) {
		start = u.PremiumUntil
	}
	until := start.AddDate(0, 0, config.Cfg.PremiumDays)
	if err := w.store.SettlePremiumOrder(ctx, orderID, u.ID, until,
		map[string]interface{}{"order_id": orderID, "until": until.UTC().Format(time.RFC3339)}); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

// RunDailyBatch credits the daily reward to every user (scheduler job).
func (w *Wallet) RunDailyBatch(ctx context.Context) (int, error) {
	ids, err := w.store.AllUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := w.store.CreditLedger(ctx, id, config.Cfg.DailyReward, models.EventDailyBatch,
			map[string]interface{}{"job": "daily"}); err != nil {
			return 0, fmt.Errorf("daily batch for user %d: %w", id, err)
		}
	}
	if len(ids) > 0 {
		if err := w.store.RecordEarning(ctx, "daily_batch",
			config.Cfg.EarningPerInteraction*float64(len(ids)), nil); err != nil {
			logger.Warn("wallet: daily batch earning not recorded", map[string]interface{}{"error": err.Error()})
		}
	}
	return len(ids), nil
}

// RunMonthlyReset grants the monthly bonus to every user and prunes old
// ledger entries (scheduler job).
func (w *Wallet) RunMonthlyReset(ctx context.Context) (int, int64, error) {
	ids, err := w.store.AllUserIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		if err := w.store.CreditLedger(ctx, id, config.Cfg.MonthlyResetBonus, models.EventMonthlyBonus,
			map[string]interface{}{"job": "monthly_reset"}); err != nil {
			return 0, 0, fmt.Errorf("monthly bonus for user %d: %w", id, err)
		}
	}
	cutoff := time.Now().Add(-config.Cfg.LedgerRetention)
	pruned, err := w.store.PruneLedger(ctx, cutoff)
	if err != nil {
		return len(ids), 0, err
	}
	if len(ids) > 0 {
		if err := w.store.RecordEarning(ctx, "monthly_reset",
			config.Cfg.EarningPerInteraction*float64(len(ids)), nil); err != nil {
			logger.Warn("wallet: monthly earning not recorded", map[string]interface{}{"error": err.Error()})
		}
	}
	return len(ids), pruned, nil
}

// SweepExpiredPremium demotes users whose premium ran out (scheduler job).
func (w *Wallet) SweepExpiredPremium(ctx context.Context) (int, error) {
	users, err := w.store.ExpiredPremiumUsers(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	for _, u := range users {
		if err := w.store.SetPremiumUntil(ctx, u.ID, time.Time{}); err != nil {
			return 0, err
		}
		if err := w.store.CreditLedger(ctx, u.ID, 0, models.EventPremiumExpiry, nil); err != nil {
			logger.Warn("wallet: premium expiry not recorded", map[string]interface{}{"user": u.ID, "error": err.Error()})
		}
	}
	return len(users), nil
}
