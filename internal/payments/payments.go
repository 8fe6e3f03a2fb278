package payments

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/logger"
	"creatorbot/internal/models"
	"creatorbot/internal/store"
	"creatorbot/internal/wallet"

	"github.com/google/uuid"
)

// Service creates payment orders and settles them after manual confirmation.
// UPI deep links carry no callback, so orders stay pending until an admin
// approves them.
type Service struct {
	store  *store.Store
	wallet *wallet.Wallet
}

func New(s *store.Store, w *wallet.Wallet) *Service {
	return &Service{store: s, wallet: w}
}

// UPILink builds a upi://pay deep link for the configured collection VPA.
func UPILink(amount float64, note string) string {
	q := url.Values{}
	q.Set("pa", config.Cfg.UPIID)
	q.Set("pn", config.Cfg.BusinessName)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tn", note)
	return "upi://pay?" + q.Encode()
}

// NewUPIOrder records a pending UPI order and returns it with the deep link.
func (s *Service) NewUPIOrder(ctx context.Context, userID int64, purpose string, amount float64) (models.Order, error) {
	o := models.Order{
		ID:      "upi_" + uuid.NewString(),
		UserID:  userID,
		Method:  "upi",
		Purpose: purpose,
		Amount:  amount,
		Status:  models.OrderPending,
		Link:    UPILink(amount, config.Cfg.BusinessName+" payment"),
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return models.Order{}, err
	}
	s.recordRequest(ctx, "pay_request_upi", o)
	return o, nil
}

// NewCashfreeOrder simulates a Cashfree order: a hosted payment link is
// derived from the order ID and the configured key. No API call is made.
func (s *Service) NewCashfreeOrder(ctx context.Context, userID int64, purpose string, amount float64) (models.Order, error) {
	id := "cf_" + uuid.NewString()
	o := models.Order{
		ID:      id,
		UserID:  userID,
		Method:  "cashfree",
		Purpose: purpose,
		Amount:  amount,
		Status:  models.OrderPending,
		Link:    fmt.Sprintf("https://sample.cashfree.com/pay/%s?amount=%.2f&key=%s", id, amount, config.Cfg.CashfreeKey),
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return models.Order{}, err
	}
	s.recordRequest(ctx, "pay_request_cashfree", o)
	return o, nil
}

func (s *Service) recordRequest(ctx context.Context, source string, o models.Order) {
	err := s.store.RecordEarning(ctx, source, config.Cfg.EarningPerInteraction,
		map[string]interface{}{"order_id": o.ID, "amount": o.Amount})
	if err != nil {
		logger.Warn("payments: request earning not recorded", map[string]interface{}{
			"order": o.ID, "error": err.Error(),
		})
	}
}

// Approve settles an order: the status flip and the wallet effect (credit
// top-up or premium grant) happen in one transaction, so a failure leaves the
// order pending and the approval retryable. Returns the settled order and,
// for premium, the new expiry.
func (s *Service) Approve(ctx context.Context, orderID string, approvedBy string) (models.Order, time.Time, error) {
	o, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return models.Order{}, time.Time{}, err
	}

	var until time.Time
	switch o.Purpose {
	case models.PurposePremium:
		u, err := s.store.UserByID(ctx, o.UserID)
		if err != nil {
			return models.Order{}, time.Time{}, err
		}
		until, err = s.wallet.SettlePremium(ctx, u, o.ID)
		if err != nil {
			return models.Order{}, time.Time{}, err
		}
	default:
		if err := s.wallet.SettleTopUp(ctx, o.UserID, o.Amount, o.ID); err != nil {
			return models.Order{}, time.Time{}, err
		}
	}

	if err := s.store.RecordEarning(ctx, "payment_"+o.Method, o.Amount,
		map[string]interface{}{"order_id": o.ID}); err != nil {
		logger.Warn("payments: settlement earning not recorded", map[string]interface{}{
			"order": o.ID, "error": err.Error(),
		})
	}
	if err := s.store.AppendAdminAction(ctx, "approve_order", map[string]interface{}{
		"order_id": o.ID, "by": approvedBy, "purpose": o.Purpose, "amount": o.Amount,
	}); err != nil {
		logger.Warn("payments: approval not audited", map[string]interface{}{"order": o.ID, "error": err.Error()})
	}

	o.Status = models.OrderPaid
	return o, until, nil
}

// Pending lists unsettled orders.
func (s *Service) Pending(ctx context.Context) ([]models.Order, error) {
	return s.store.PendingOrders(ctx)
}
