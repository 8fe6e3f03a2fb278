package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"creatorbot/internal/config"
	"creatorbot/internal/models"
	"creatorbot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func isAdmin(msg *tgbotapi.Message) bool {
	return msg.From != nil && config.Cfg.AdminID != 0 && msg.From.ID == config.Cfg.AdminID
}

func (b *Bot) cmdAdminWallet(ctx context.Context, msg *tgbotapi.Message) error {
	if !isAdmin(msg) {
		b.send(msg.Chat.ID, "Unauthorized.")
		return nil
	}
	balance, err := b.store.TreasuryBalance(ctx, models.PrimaryTreasury)
	if err != nil {
		return fmt.Errorf("treasury balance: %w", err)
	}
	pending, err := b.payments.Pending(ctx)
	if err != nil {
		return fmt.Errorf("pending orders: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏦 Treasury <b>%s</b>: %.2f\n", models.PrimaryTreasury, balance))
	if len(pending) == 0 {
		sb.WriteString("\nNo pending orders.")
	} else {
		sb.WriteString(fmt.Sprintf("\n<b>%d pending order(s)</b>\n", len(pending)))
		for _, o := range pending {
			sb.WriteString(fmt.Sprintf("<code>%s</code> — %s %s ₹%.2f (user %d)\n",
				esc(o.ID), o.Method, o.Purpose, o.Amount, o.UserID))
		}
		sb.WriteString("\nApprove with /admin_approve &lt;order-id&gt;")
	}
	b.send(msg.Chat.ID, sb.String())
	return nil
}

func (b *Bot) cmdAdminApprove(ctx context.Context, msg *tgbotapi.Message) error {
	if !isAdmin(msg) {
		b.send(msg.Chat.ID, "Unauthorized.")
		return nil
	}
	orderID := strings.TrimSpace(msg.CommandArguments())
	if orderID == "" {
		b.send(msg.Chat.ID, "Usage: /admin_approve &lt;order-id&gt;")
		return nil
	}

	order, until, err := b.payments.Approve(ctx, orderID, fmt.Sprintf("tg:%d", msg.From.ID))
	if errors.Is(err, store.ErrOrderNotFound) {
		b.send(msg.Chat.ID, "Order not found or already settled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("approve order %s: %w", orderID, err)
	}

	b.send(msg.Chat.ID, fmt.Sprintf("✅ Order <code>%s</code> approved (%s, ₹%.2f).",
		esc(order.ID), order.Purpose, order.Amount))

	// Tell the payer.
	if payer, err := b.store.UserByID(ctx, order.UserID); err == nil {
		switch order.Purpose {
		case models.PurposePremium:
			b.send(payer.TgID, fmt.Sprintf("⭐ Payment confirmed — you're premium until %s. Enjoy!",
				until.UTC().Format("2 Jan 2006")))
		default:
			b.send(payer.TgID, fmt.Sprintf("✅ Payment confirmed — <b>%.2f credits</b> added to your balance.",
				order.Amount))
		}
	}
	return nil
}

func (b *Bot) cmdAdminStats(ctx context.Context, msg *tgbotapi.Message) error {
	if !isAdmin(msg) {
		b.send(msg.Chat.ID, "Unauthorized.")
		return nil
	}
	users, err := b.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	total, err := b.store.EarningsTotal(ctx)
	if err != nil {
		return err
	}
	pending, err := b.payments.Pending(ctx)
	if err != nil {
		return err
	}
	b.send(msg.Chat.ID, fmt.Sprintf(
		"📊 <b>Stats</b>\nUsers: %d\nTotal earnings: %.2f\nPending orders: %d",
		users, total, len(pending)))
	return nil
}
