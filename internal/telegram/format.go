package telegram

import (
	"fmt"
	"strings"

	"creatorbot/internal/config"
	"creatorbot/internal/models"

	"golang.org/x/net/html"
)

func esc(s string) string { return html.EscapeString(s) }

// adFooter is appended to free-tier AI replies. Premium removes it.
func adFooter() string {
	var sb strings.Builder
	sb.WriteString("\n\n— — —\n<i>")
	sb.WriteString(esc(config.Cfg.BusinessName))
	if config.Cfg.SupportUsername != "" {
		sb.WriteString(" · support: @")
		sb.WriteString(esc(strings.TrimPrefix(config.Cfg.SupportUsername, "@")))
	}
	sb.WriteString(" · /premium removes this banner</i>")
	return sb.String()
}

func welcomeText(firstName string, created bool) string {
	name := firstName
	if name == "" {
		name = "there"
	}
	if !created {
		return fmt.Sprintf("👋 Welcome back, %s! Use /help to see what I can do.", esc(name))
	}
	return fmt.Sprintf(
		"👋 Hi %s! Welcome to <b>%s</b>.\n\n"+
			"You've been credited a signup bonus of <b>%.0f credits</b>.\n"+
			"Send any message to chat with the AI (%.1f credit per chat), or try /script to generate a video script.\n\n"+
			"Use /credits to check your balance and /daily for a free daily reward.",
		esc(name), esc(config.Cfg.BusinessName),
		config.Cfg.SignupBonus, config.Cfg.CreditCostPerChat)
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("<b>Commands</b>\n")
	sb.WriteString("/start — create your account\n")
	sb.WriteString("/credits — balance and plan\n")
	sb.WriteString("/daily — claim the daily reward\n")
	sb.WriteString("/script &lt;topic&gt; [| &lt;style&gt;] — generate a video script\n")
	sb.WriteString("/export — download your last script as PDF\n")
	sb.WriteString("/pay &lt;upi|cashfree&gt; &lt;amount&gt; — top up credits\n")
	sb.WriteString("/premium — go ad-free with premium\n")
	sb.WriteString("\nSend any other text to chat with the AI. Premium users can also upload a PDF to get a summary.")
	if config.Cfg.SupportUsername != "" {
		sb.WriteString(fmt.Sprintf("\n\nSupport: @%s", esc(strings.TrimPrefix(config.Cfg.SupportUsername, "@"))))
	}
	if config.Cfg.BusinessEmail != "" {
		sb.WriteString(fmt.Sprintf("\nContact: %s", esc(config.Cfg.BusinessEmail)))
	}
	return sb.String()
}

func creditsText(u models.User, premium bool) string {
	plan := "Free"
	if premium {
		plan = fmt.Sprintf("Premium until %s", u.PremiumUntil.UTC().Format("2 Jan 2006"))
	}
	return fmt.Sprintf("💰 You have <b>%.2f credits</b>.\nPlan: <b>%s</b>", u.Credits, plan)
}

func premiumPitch() string {
	return fmt.Sprintf(
		"⭐ <b>%s Premium</b> — ₹%.0f for %d days\n\n"+
			"• Unlimited AI chats (no credit cost)\n"+
			"• No ad banner on replies\n"+
			"• PDF upload &amp; summarization\n\n"+
			"Pick a payment method below. After paying, the admin confirms your order.",
		esc(config.Cfg.BusinessName), config.Cfg.PremiumPrice, config.Cfg.PremiumDays)
}
