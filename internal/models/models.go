package models

import "time"

// User is a Telegram account known to the bot.
type User struct {
	ID           int64     `json:"id"`
	TgID         int64     `json:"tg_id"`
	FirstName    string    `json:"first_name"`
	Username     string    `json:"username"`
	Credits      float64   `json:"credits"`
	LastDaily    string    `json:"last_daily,omitempty"` // UTC date, YYYY-MM-DD
	PremiumUntil time.Time `json:"premium_until,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Premium reports whether the user has an active premium period at t.
func (u User) Premium(t time.Time) bool {
	return !u.PremiumUntil.IsZero() && u.PremiumUntil.After(t)
}

// LedgerEntry records a single credit movement (or zero-amount event) for a user.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Event     string    `json:"event"`
	Amount    float64   `json:"amount"`
	Metadata  string    `json:"metadata,omitempty"` // JSON blob
	CreatedAt time.Time `json:"created_at"`
}

// Ledger event names.
const (
	EventSignupBonus   = "signup_bonus"
	EventDailyReward   = "daily_reward"
	EventDailyBatch    = "daily_batch_reward"
	EventMonthlyBonus  = "monthly_bonus"
	EventChatUsage     = "chat_usage"
	EventChatResponse  = "chat_response"
	EventScriptUsage   = "script_usage"
	EventOrderCredit   = "order_credit"
	EventPremiumGrant  = "premium_grant"
	EventPremiumExpiry = "premium_expiry"
)

// Earning is a monetization bookkeeping record.
type Earning struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Amount    float64   `json:"amount"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Treasury is a named balance bucket. The "primary" treasury always exists.
type Treasury struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Balance   float64   `json:"balance"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PrimaryTreasury is the default treasury name.
const PrimaryTreasury = "primary"

// AdminAction is an audit record of admin operations and self-heal reports.
type AdminAction struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Order statuses.
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
)

// Order purposes.
const (
	PurposeCredits = "credits"
	PurposePremium = "premium"
)

// Order is a payment request awaiting manual confirmation.
type Order struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Method    string    `json:"method"`  // "upi" or "cashfree"
	Purpose   string    `json:"purpose"` // "credits" or "premium"
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
