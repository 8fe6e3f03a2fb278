package wallet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/models"
	"creatorbot/internal/store"
)

func init() {
	config.Cfg = config.Config{
		SignupBonus:           10,
		DailyReward:           2,
		MonthlyResetBonus:     50,
		CreditCostPerChat:     1,
		EarningPerInteraction: 0.01,
		PremiumDays:           30,
		LedgerRetention:       90 * 24 * time.Hour,
	}
}

func newTestWallet(t *testing.T) (*Wallet, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "wallet.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestSignupGrantsBonusOnce(t *testing.T) {
	w, _ := newTestWallet(t)
	ctx := context.Background()

	u, created, err := w.Signup(ctx, 100, "Ravi", "ravi_films")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if u.Credits != 10 {
		t.Errorf("expected 10 credits after signup, got %v", u.Credits)
	}

	u2, created, err := w.Signup(ctx, 100, "Ravi", "ravi_films")
	if err != nil {
		t.Fatalf("second signup: %v", err)
	}
	if created {
		t.Error("expected created=false on repeat signup")
	}
	if u2.Credits != 10 {
		t.Errorf("repeat signup must not grant another bonus, got %v", u2.Credits)
	}
}

func TestClaimDailyOncePerDay(t *testing.T) {
	w, _ := newTestWallet(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	if _, _, err := w.Signup(ctx, 100, "R", "r"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	reward, err := w.ClaimDaily(ctx, 100, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if reward != 2 {
		t.Errorf("expected reward 2, got %v", reward)
	}

	if _, err := w.ClaimDaily(ctx, 100, now.Add(time.Hour)); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("expected ErrAlreadyClaimed, got %v", err)
	}

	// Next UTC day works again
	if _, err := w.ClaimDaily(ctx, 100, now.AddDate(0, 0, 1)); err != nil {
		t.Errorf("next-day claim failed: %v", err)
	}

	u, _ := w.User(ctx, 100)
	if u.Credits != 14 { // 10 signup + 2 + 2
		t.Errorf("expected 14 credits, got %v", u.Credits)
	}
}

func TestChargeChat(t *testing.T) {
	w, s := newTestWallet(t)
	ctx := context.Background()

	u, _, _ := w.Signup(ctx, 100, "R", "r")

	if err := w.ChargeChat(ctx, u, models.EventChatUsage, nil); err != nil {
		t.Fatalf("charge: %v", err)
	}
	u, _ = w.User(ctx, 100)
	if u.Credits != 9 {
		t.Errorf("expected 9 credits, got %v", u.Credits)
	}

	// Spending flows to the treasury
	bal, _ := s.TreasuryBalance(ctx, models.PrimaryTreasury)
	if bal < 1 {
		t.Errorf("expected treasury >= 1, got %v", bal)
	}

	// Broke user can't chat
	broke := u
	broke.Credits = 0.5
	if err := w.ChargeChat(ctx, broke, models.EventChatUsage, nil); !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("expected ErrInsufficientCredits, got %v", err)
	}

	// Premium chats are free
	premium := u
	premium.Credits = 0
	premium.PremiumUntil = time.Now().Add(time.Hour)
	if err := w.ChargeChat(ctx, premium, models.EventChatUsage, nil); err != nil {
		t.Errorf("premium charge should be free, got %v", err)
	}
}

func TestSettlePremiumExtends(t *testing.T) {
	w, s := newTestWallet(t)
	ctx := context.Background()

	u, _, _ := w.Signup(ctx, 100, "R", "r")
	newOrder := func(id string) {
		t.Helper()
		err := s.CreateOrder(ctx, models.Order{
			ID: id, UserID: u.ID, Method: "upi", Purpose: models.PurposePremium,
			Amount: 199, Status: models.OrderPending,
		})
		if err != nil {
			t.Fatalf("create order %s: %v", id, err)
		}
	}

	newOrder("order1")
	until, err := w.SettlePremium(ctx, u, "order1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if d := time.Until(until); d < 29*24*time.Hour || d > 31*24*time.Hour {
		t.Errorf("expected ~30 days of premium, got %v", d)
	}

	// A second purchase extends from the current expiry, not from now
	u, _ = w.User(ctx, 100)
	newOrder("order2")
	until2, err := w.SettlePremium(ctx, u, "order2")
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if d := until2.Sub(until); d < 29*24*time.Hour || d > 31*24*time.Hour {
		t.Errorf("expected extension of ~30 days, got %v", d)
	}

	// Settling the same order twice must fail
	if _, err := w.SettlePremium(ctx, u, "order1"); !errors.Is(err, store.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on double settle, got %v", err)
	}
}

func TestRunDailyBatchAndMonthlyReset(t *testing.T) {
	w, _ := newTestWallet(t)
	ctx := context.Background()

	w.Signup(ctx, 1, "A", "a")
	w.Signup(ctx, 2, "B", "b")

	n, err := w.RunDailyBatch(ctx)
	if err != nil {
		t.Fatalf("daily batch: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 users rewarded, got %d", n)
	}
	u, _ := w.User(ctx, 1)
	if u.Credits != 12 {
		t.Errorf("expected 12 credits after batch, got %v", u.Credits)
	}

	users, pruned, err := w.RunMonthlyReset(ctx)
	if err != nil {
		t.Fatalf("monthly reset: %v", err)
	}
	if users != 2 {
		t.Errorf("expected 2 users, got %d", users)
	}
	if pruned != 0 {
		t.Errorf("expected no pruned entries, got %d", pruned)
	}
	u, _ = w.User(ctx, 1)
	if u.Credits != 62 {
		t.Errorf("expected 62 credits after monthly bonus, got %v", u.Credits)
	}
}

func TestSweepExpiredPremium(t *testing.T) {
	w, s := newTestWallet(t)
	ctx := context.Background()

	u, _, _ := w.Signup(ctx, 1, "A", "a")
	if err := s.SetPremiumUntil(ctx, u.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("set premium: %v", err)
	}

	n, err := w.SweepExpiredPremium(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 demoted user, got %d", n)
	}
	u, _ = w.User(ctx, 1)
	if u.Premium(time.Now()) {
		t.Error("user should no longer be premium")
	}
	if n, _ := w.SweepExpiredPremium(ctx); n != 0 {
		t.Errorf("second sweep should find nothing, got %d", n)
	}
}
