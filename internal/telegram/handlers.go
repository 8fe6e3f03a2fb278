package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"creatorbot/internal/ai"
	"creatorbot/internal/config"
	"creatorbot/internal/logger"
	"creatorbot/internal/models"
	"creatorbot/internal/pdfutil"
	"creatorbot/internal/store"
	"creatorbot/internal/wallet"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const aiTimeout = 60 * time.Second

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.cmdStart(ctx, msg)
	case "help":
		b.send(msg.Chat.ID, helpText())
		return nil
	case "credits":
		return b.cmdCredits(ctx, msg)
	case "daily":
		return b.cmdDaily(ctx, msg)
	case "script":
		return b.cmdScript(ctx, msg)
	case "export":
		return b.cmdExport(ctx, msg)
	case "pay":
		return b.cmdPay(ctx, msg)
	case "premium":
		return b.cmdPremium(ctx, msg)
	case "admin_wallet":
		return b.cmdAdminWallet(ctx, msg)
	case "admin_approve":
		return b.cmdAdminApprove(ctx, msg)
	case "admin_stats":
		return b.cmdAdminStats(ctx, msg)
	default:
		b.send(msg.Chat.ID, "Unknown command. Try /help.")
		return nil
	}
}

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) error {
	from := msg.From
	if from == nil {
		return nil
	}
	_, created, err := b.wallet.Signup(ctx, from.ID, from.FirstName, from.UserName)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	b.send(msg.Chat.ID, welcomeText(from.FirstName, created))
	return nil
}

// requireUser resolves the sender's account, prompting /start when missing.
func (b *Bot) requireUser(ctx context.Context, msg *tgbotapi.Message) (models.User, bool, error) {
	if msg.From == nil {
		return models.User{}, false, nil
	}
	u, err := b.wallet.User(ctx, msg.From.ID)
	if errors.Is(err, store.ErrUserNotFound) {
		b.send(msg.Chat.ID, "Please /start first to create your account.")
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

func (b *Bot) cmdCredits(ctx context.Context, msg *tgbotapi.Message) error {
	u, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Go premium", "buy_premium"),
		),
	)
	b.sendWithKeyboard(msg.Chat.ID, creditsText(u, u.Premium(time.Now())), kb)
	return nil
}

func (b *Bot) cmdDaily(ctx context.Context, msg *tgbotapi.Message) error {
	_, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	reward, err := b.wallet.ClaimDaily(ctx, msg.From.ID, time.Now())
	if errors.Is(err, wallet.ErrAlreadyClaimed) {
		b.send(msg.Chat.ID, "⚠️ You already claimed today's reward. Come back tomorrow!")
		return nil
	}
	if err != nil {
		return fmt.Errorf("daily claim: %w", err)
	}
	b.send(msg.Chat.ID, fmt.Sprintf("✅ Daily reward of <b>%.1f credits</b> granted!", reward))
	return nil
}

// splitTopicStyle parses /script arguments of the form "topic | style".
func splitTopicStyle(args string) (topic, style string) {
	parts := strings.SplitN(args, "|", 2)
	topic = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		style = strings.TrimSpace(parts[1])
	}
	return topic, style
}

func (b *Bot) cmdScript(ctx context.Context, msg *tgbotapi.Message) error {
	u, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	topic, style := splitTopicStyle(msg.CommandArguments())
	if topic == "" {
		b.send(msg.Chat.ID, "Usage: /script &lt;topic&gt; [| &lt;style&gt;]\nExample: /script 5 morning habits of successful creators | upbeat")
		return nil
	}

	if err := b.wallet.ChargeChat(ctx, u, models.EventScriptUsage,
		map[string]interface{}{"topic_len": len(topic)}); err != nil {
		return b.reportChargeError(ctx, msg, err)
	}

	actx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()
	script, err := b.ai.Script(actx, topic, style)
	if err != nil {
		b.send(msg.Chat.ID, aiFailureText(err))
		return nil
	}

	b.rememberScript(msg.From.ID, script)
	b.wallet.RecordResponse(ctx, u.ID, len(script))

	reply := ai.RenderTelegramHTML(script)
	if !u.Premium(time.Now()) {
		reply += adFooter()
	}
	reply += "\n\n💾 Use /export to download this script as a PDF."
	b.send(msg.Chat.ID, reply)
	return nil
}

func (b *Bot) cmdExport(ctx context.Context, msg *tgbotapi.Message) error {
	_, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	script, found := b.lastScript(msg.From.ID)
	if !found {
		b.send(msg.Chat.ID, "No script to export yet. Generate one with /script &lt;topic&gt; first.")
		return nil
	}
	data, err := pdfutil.ScriptPDF("Video Script", config.Cfg.BusinessName, script)
	if err != nil {
		return fmt.Errorf("script pdf: %w", err)
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  "script.pdf",
		Bytes: data,
	})
	doc.Caption = "Your script, ready to shoot 🎬"
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send pdf: %w", err)
	}
	return nil
}

func (b *Bot) cmdPay(ctx context.Context, msg *tgbotapi.Message) error {
	u, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.send(msg.Chat.ID, "Usage: /pay &lt;upi|cashfree&gt; &lt;amount&gt;\nExample: /pay upi 50")
		return nil
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || amount <= 0 {
		b.send(msg.Chat.ID, "Invalid amount. Example: /pay upi 50")
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "upi":
		if config.Cfg.UPIID == "" {
			b.send(msg.Chat.ID, "UPI payments are not configured. Try /pay cashfree.")
			return nil
		}
		order, err := b.payments.NewUPIOrder(ctx, u.ID, models.PurposeCredits, amount)
		if err != nil {
			return fmt.Errorf("upi order: %w", err)
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Open UPI app", order.Link)),
		)
		b.sendWithKeyboard(msg.Chat.ID, fmt.Sprintf(
			"Pay <b>₹%.2f</b> via UPI.\nOrder <code>%s</code> — credits are added once the payment is confirmed.",
			amount, esc(order.ID)), kb)
	case "cashfree":
		order, err := b.payments.NewCashfreeOrder(ctx, u.ID, models.PurposeCredits, amount)
		if err != nil {
			return fmt.Errorf("cashfree order: %w", err)
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Pay on Cashfree", order.Link)),
		)
		b.sendWithKeyboard(msg.Chat.ID, fmt.Sprintf(
			"Cashfree payment link created for <b>₹%.2f</b>.\nOrder <code>%s</code>.",
			amount, esc(order.ID)), kb)
	default:
		b.send(msg.Chat.ID, "Unsupported method. Use <code>upi</code> or <code>cashfree</code>.")
	}
	return nil
}

func (b *Bot) cmdPremium(ctx context.Context, msg *tgbotapi.Message) error {
	u, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	if u.Premium(time.Now()) {
		b.send(msg.Chat.ID, fmt.Sprintf("⭐ You're already premium until %s.",
			u.PremiumUntil.UTC().Format("2 Jan 2006")))
		return nil
	}
	b.sendWithKeyboard(msg.Chat.ID, premiumPitch(), premiumKeyboard())
	return nil
}

func premiumKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Pay with UPI", "premium_upi"),
			tgbotapi.NewInlineKeyboardButtonData("Pay with Cashfree", "premium_cashfree"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Check balance", "my_credits"),
		),
	)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	// Acknowledge immediately so the client stops the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Warn("telegram: callback ack failed", map[string]interface{}{"error": err.Error()})
	}
	if cq.Message == nil || cq.From == nil {
		return nil
	}
	chatID := cq.Message.Chat.ID

	u, err := b.wallet.User(ctx, cq.From.ID)
	if errors.Is(err, store.ErrUserNotFound) {
		b.send(chatID, "Please /start first to create your account.")
		return nil
	}
	if err != nil {
		return err
	}

	switch cq.Data {
	case "my_credits":
		b.send(chatID, creditsText(u, u.Premium(time.Now())))
	case "buy_premium":
		fake := *cq.Message
		fake.From = cq.From
		return b.cmdPremium(ctx, &fake)
	case "premium_upi":
		if config.Cfg.UPIID == "" {
			b.send(chatID, "UPI payments are not configured. Try Cashfree.")
			return nil
		}
		order, err := b.payments.NewUPIOrder(ctx, u.ID, models.PurposePremium, config.Cfg.PremiumPrice)
		if err != nil {
			return fmt.Errorf("premium upi order: %w", err)
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Open UPI app", order.Link)),
		)
		b.sendWithKeyboard(chatID, fmt.Sprintf(
			"Pay <b>₹%.0f</b> via UPI for %d days of premium.\nOrder <code>%s</code>.",
			config.Cfg.PremiumPrice, config.Cfg.PremiumDays, esc(order.ID)), kb)
	case "premium_cashfree":
		order, err := b.payments.NewCashfreeOrder(ctx, u.ID, models.PurposePremium, config.Cfg.PremiumPrice)
		if err != nil {
			return fmt.Errorf("premium cashfree order: %w", err)
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Pay on Cashfree", order.Link)),
		)
		b.sendWithKeyboard(chatID, fmt.Sprintf(
			"Cashfree payment link for <b>₹%.0f</b> (%d days of premium).\nOrder <code>%s</code>.",
			config.Cfg.PremiumPrice, config.Cfg.PremiumDays, esc(order.ID)), kb)
	}
	return nil
}

func (b *Bot) handleChat(ctx context.Context, msg *tgbotapi.Message) error {
	u, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}

	if err := b.wallet.ChargeChat(ctx, u, models.EventChatUsage,
		map[string]interface{}{"prompt_len": len(msg.Text)}); err != nil {
		return b.reportChargeError(ctx, msg, err)
	}

	actx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()
	reply, err := b.ai.Reply(actx, msg.Text)
	if err != nil {
		// Matching the original behavior: spent credits are not refunded.
		b.send(msg.Chat.ID, aiFailureText(err))
		return nil
	}

	b.wallet.RecordResponse(ctx, u.ID, len(reply))

	out := ai.RenderTelegramHTML(reply)
	if !u.Premium(time.Now()) {
		out += adFooter()
	}
	b.send(msg.Chat.ID, out)
	return nil
}

func (b *Bot) reportChargeError(ctx context.Context, msg *tgbotapi.Message, err error) error {
	if errors.Is(err, wallet.ErrInsufficientCredits) {
		b.send(msg.Chat.ID,
			"⚠️ You don't have enough credits. Use /pay to top up, /daily for a free reward, or /premium for unlimited chats.")
		return nil
	}
	return fmt.Errorf("charge: %w", err)
}

func aiFailureText(err error) string {
	if errors.Is(err, ai.ErrUnavailable) {
		return "⚠️ AI features are not configured on this bot."
	}
	return "⚠️ AI temporarily unavailable. Try again later."
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) error {
	u, ok, err := b.requireUser(ctx, msg)
	if err != nil || !ok {
		return err
	}
	if !u.Premium(time.Now()) {
		b.send(msg.Chat.ID, "📄 PDF summarization is a premium feature. See /premium.")
		return nil
	}
	doc := msg.Document
	if doc.MimeType != "application/pdf" && !strings.HasSuffix(strings.ToLower(doc.FileName), ".pdf") {
		b.send(msg.Chat.ID, "I can only read PDF documents.")
		return nil
	}
	if doc.FileSize > pdfutil.MaxUploadSize {
		b.send(msg.Chat.ID, "That PDF is too large (10 MB max).")
		return nil
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		return fmt.Errorf("download document: %w", err)
	}
	text, err := pdfutil.ExtractText(data)
	if err != nil {
		b.send(msg.Chat.ID, "I couldn't extract text from that PDF. Scanned documents aren't supported.")
		return nil
	}

	actx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()
	summary, err := b.ai.Summarize(actx, text)
	if err != nil {
		b.send(msg.Chat.ID, aiFailureText(err))
		return nil
	}
	b.wallet.RecordResponse(ctx, u.ID, len(summary))
	b.send(msg.Chat.ID, "📄 <b>Summary</b>\n\n"+ai.RenderTelegramHTML(summary))
	return nil
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, pdfutil.MaxUploadSize))
}
