package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"creatorbot/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, created, err := s.CreateUser(ctx, 12345, "Asha", "asha_creates", 10)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !created {
		t.Error("expected created=true for new user")
	}
	if u.TgID != 12345 || u.Credits != 10 {
		t.Errorf("unexpected user: %+v", u)
	}

	// Second create must be a no-op
	u2, created, err := s.CreateUser(ctx, 12345, "Asha", "asha_creates", 10)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Error("expected created=false for existing user")
	}
	if u2.ID != u.ID {
		t.Errorf("expected same user ID, got %d vs %d", u2.ID, u.ID)
	}

	if _, err := s.UserByTgID(ctx, 99999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreditLedgerUpdatesBalanceAndTreasury(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, _, err := s.CreateUser(ctx, 1, "A", "a", 10)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Positive amount: credits go up, treasury untouched
	if err := s.CreditLedger(ctx, u.ID, 5, models.EventDailyReward, nil); err != nil {
		t.Fatalf("credit: %v", err)
	}
	u, _ = s.UserByTgID(ctx, 1)
	if u.Credits != 15 {
		t.Errorf("expected 15 credits, got %v", u.Credits)
	}
	bal, err := s.TreasuryBalance(ctx, models.PrimaryTreasury)
	if err != nil {
		t.Fatalf("treasury balance: %v", err)
	}
	if bal != 0 {
		t.Errorf("expected treasury 0, got %v", bal)
	}

	// Negative amount: spending routes into the treasury
	if err := s.CreditLedger(ctx, u.ID, -3, models.EventChatUsage, map[string]interface{}{"prompt_len": 12}); err != nil {
		t.Fatalf("debit: %v", err)
	}
	u, _ = s.UserByTgID(ctx, 1)
	if u.Credits != 12 {
		t.Errorf("expected 12 credits, got %v", u.Credits)
	}
	bal, _ = s.TreasuryBalance(ctx, models.PrimaryTreasury)
	if bal != 3 {
		t.Errorf("expected treasury 3, got %v", bal)
	}

	entries, err := s.RecentLedger(ctx, 10)
	if err != nil {
		t.Fatalf("recent ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Event != models.EventChatUsage {
		t.Errorf("expected newest entry first, got %s", entries[0].Event)
	}
}

func TestRecordEarningCreditsTreasury(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordEarning(ctx, "signup", 0.01, map[string]interface{}{"tg_id": 1}); err != nil {
		t.Fatalf("record earning: %v", err)
	}
	if err := s.RecordEarning(ctx, "chat_interaction", 0.01, nil); err != nil {
		t.Fatalf("record earning: %v", err)
	}

	total, err := s.EarningsTotal(ctx)
	if err != nil {
		t.Fatalf("earnings total: %v", err)
	}
	if total != 0.02 {
		t.Errorf("expected total 0.02, got %v", total)
	}
	bal, _ := s.TreasuryBalance(ctx, models.PrimaryTreasury)
	if bal != 0.02 {
		t.Errorf("expected treasury 0.02, got %v", bal)
	}
}

func TestTransferTreasury(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.AdjustTreasury(ctx, models.PrimaryTreasury, 100); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	// Insufficient funds
	err := s.TransferTreasury(ctx, models.PrimaryTreasury, "payout", 500, nil)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// Unknown source
	err = s.TransferTreasury(ctx, "nope", "payout", 1, nil)
	if !errors.Is(err, ErrTreasuryNotFound) {
		t.Errorf("expected ErrTreasuryNotFound, got %v", err)
	}

	// Valid transfer creates the target bucket and is audited
	if err := s.TransferTreasury(ctx, models.PrimaryTreasury, "payout", 40, nil); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	src, _ := s.TreasuryBalance(ctx, models.PrimaryTreasury)
	dst, _ := s.TreasuryBalance(ctx, "payout")
	if src != 60 || dst != 40 {
		t.Errorf("expected 60/40, got %v/%v", src, dst)
	}
	actions, err := s.RecentAdminActions(ctx, 5)
	if err != nil {
		t.Fatalf("admin actions: %v", err)
	}
	if len(actions) != 1 || actions[0].Action != "transfer_treasury" {
		t.Errorf("expected one transfer_treasury action, got %+v", actions)
	}
}

func TestOrderLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	o := models.Order{
		ID: "upi_test1", UserID: 1, Method: "upi", Purpose: models.PurposeCredits,
		Amount: 50, Status: models.OrderPending, Link: "upi://pay?pa=x",
	}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	pending, err := s.PendingOrders(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "upi_test1" {
		t.Fatalf("expected the pending order, got %+v", pending)
	}

	if err := s.MarkOrderPaid(ctx, "upi_test1"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	got, err := s.OrderByID(ctx, "upi_test1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != models.OrderPaid {
		t.Errorf("expected paid, got %s", got.Status)
	}

	// Settling twice must fail
	if err := s.MarkOrderPaid(ctx, "upi_test1"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on double settle, got %v", err)
	}
}

func TestSettleCreditOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, _, _ := s.CreateUser(ctx, 1, "A", "a", 10)
	o := models.Order{
		ID: "upi_settle", UserID: u.ID, Method: "upi", Purpose: models.PurposeCredits,
		Amount: 50, Status: models.OrderPending,
	}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := s.SettleCreditOrder(ctx, o.ID, u.ID, o.Amount, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	got, _ := s.OrderByID(ctx, o.ID)
	if got.Status != models.OrderPaid {
		t.Errorf("expected paid, got %s", got.Status)
	}
	u, _ = s.UserByTgID(ctx, 1)
	if u.Credits != 60 {
		t.Errorf("expected 60 credits, got %v", u.Credits)
	}
	entries, _ := s.RecentLedger(ctx, 5)
	if len(entries) != 1 || entries[0].Event != models.EventOrderCredit {
		t.Errorf("expected one order_credit entry, got %+v", entries)
	}

	// The second settle is rejected and must not credit again
	if err := s.SettleCreditOrder(ctx, o.ID, u.ID, o.Amount, nil); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on double settle, got %v", err)
	}
	u, _ = s.UserByTgID(ctx, 1)
	if u.Credits != 60 {
		t.Errorf("double settle changed credits: %v", u.Credits)
	}
}

func TestSettlePremiumOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, _, _ := s.CreateUser(ctx, 1, "A", "a", 0)
	o := models.Order{
		ID: "cf_settle", UserID: u.ID, Method: "cashfree", Purpose: models.PurposePremium,
		Amount: 199, Status: models.OrderPending,
	}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	until := time.Now().Add(30 * 24 * time.Hour)
	if err := s.SettlePremiumOrder(ctx, o.ID, u.ID, until, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	got, _ := s.OrderByID(ctx, o.ID)
	if got.Status != models.OrderPaid {
		t.Errorf("expected paid, got %s", got.Status)
	}
	u, _ = s.UserByTgID(ctx, 1)
	if !u.Premium(time.Now()) {
		t.Error("user should be premium after settlement")
	}
	if u.Credits != 0 {
		t.Errorf("premium settlement changed credits: %v", u.Credits)
	}

	// An unknown order must not touch the user
	err := s.SettlePremiumOrder(ctx, "cf_missing", u.ID, until.Add(time.Hour), nil)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestPruneLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, _, _ := s.CreateUser(ctx, 1, "A", "a", 0)
	for i := 0; i < 3; i++ {
		if err := s.CreditLedger(ctx, u.ID, 1, models.EventDailyBatch, nil); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	// Nothing is old enough yet
	n, err := s.PruneLedger(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 pruned, got %d", n)
	}

	// A future cutoff removes everything
	n, err = s.PruneLedger(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pruned, got %d", n)
	}
}

func TestPremiumExpiry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, _, _ := s.CreateUser(ctx, 1, "A", "a", 0)
	past := time.Now().Add(-time.Hour)
	if err := s.SetPremiumUntil(ctx, u.ID, past); err != nil {
		t.Fatalf("set premium: %v", err)
	}

	expired, err := s.ExpiredPremiumUsers(ctx, time.Now())
	if err != nil {
		t.Fatalf("expired users: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != u.ID {
		t.Fatalf("expected the expired user, got %+v", expired)
	}

	// Clearing the expiry removes the user from the sweep
	if err := s.SetPremiumUntil(ctx, u.ID, time.Time{}); err != nil {
		t.Fatalf("clear premium: %v", err)
	}
	expired, _ = s.ExpiredPremiumUsers(ctx, time.Now())
	if len(expired) != 0 {
		t.Errorf("expected no expired users, got %+v", expired)
	}
}
