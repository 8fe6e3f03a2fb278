package telegram

import (
	"strings"
	"testing"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/models"
)

func init() {
	config.Cfg = config.Config{
		BusinessName:      "Creator Bot",
		BusinessEmail:     "hello@example.com",
		SupportUsername:   "@creator_support",
		SignupBonus:       10,
		CreditCostPerChat: 1,
		PremiumPrice:      199,
		PremiumDays:       30,
	}
}

func TestAdFooter(t *testing.T) {
	footer := adFooter()
	if !strings.Contains(footer, "Creator Bot") {
		t.Errorf("footer missing business name: %q", footer)
	}
	if !strings.Contains(footer, "@creator_support") {
		t.Errorf("footer missing support handle: %q", footer)
	}
	if !strings.Contains(footer, "/premium") {
		t.Errorf("footer missing premium hint: %q", footer)
	}
	// Username is configured with a leading @; the footer must not double it.
	if strings.Contains(footer, "@@") {
		t.Errorf("footer doubled the @ prefix: %q", footer)
	}
}

func TestWelcomeText(t *testing.T) {
	fresh := welcomeText("Riya", true)
	if !strings.Contains(fresh, "Riya") || !strings.Contains(fresh, "10 credits") {
		t.Errorf("new-user welcome wrong: %q", fresh)
	}
	back := welcomeText("Riya", false)
	if strings.Contains(back, "signup bonus") {
		t.Errorf("returning user must not see the bonus line: %q", back)
	}
	anon := welcomeText("", true)
	if !strings.Contains(anon, "there") {
		t.Errorf("empty name should fall back to a greeting: %q", anon)
	}
}

func TestWelcomeTextEscapesName(t *testing.T) {
	out := welcomeText("<b>x</b>", true)
	if strings.Contains(out, "<b>x</b>") {
		t.Errorf("user-supplied name must be escaped: %q", out)
	}
}

func TestHelpText(t *testing.T) {
	h := helpText()
	for _, cmd := range []string{"/start", "/credits", "/daily", "/script", "/export", "/pay", "/premium"} {
		if !strings.Contains(h, cmd) {
			t.Errorf("help missing %s", cmd)
		}
	}
	if !strings.Contains(h, "@creator_support") || !strings.Contains(h, "hello@example.com") {
		t.Errorf("help missing contact details: %q", h)
	}
}

func TestCreditsText(t *testing.T) {
	u := models.User{Credits: 12.5}
	free := creditsText(u, false)
	if !strings.Contains(free, "12.50") || !strings.Contains(free, "Free") {
		t.Errorf("free plan text wrong: %q", free)
	}

	u.PremiumUntil = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	prem := creditsText(u, true)
	if !strings.Contains(prem, "Premium until 1 Oct 2026") {
		t.Errorf("premium plan text wrong: %q", prem)
	}
}

func TestSplitTopicStyle(t *testing.T) {
	cases := []struct {
		args, topic, style string
	}{
		{"5 morning habits", "5 morning habits", ""},
		{"5 morning habits | upbeat", "5 morning habits", "upbeat"},
		{" gym vlog |  dramatic voiceover ", "gym vlog", "dramatic voiceover"},
		{"| mysterious", "", "mysterious"},
		{"", "", ""},
	}
	for _, tc := range cases {
		topic, style := splitTopicStyle(tc.args)
		if topic != tc.topic || style != tc.style {
			t.Errorf("splitTopicStyle(%q) = (%q, %q), want (%q, %q)",
				tc.args, topic, style, tc.topic, tc.style)
		}
	}
}

func TestPremiumKeyboardActions(t *testing.T) {
	kb := premiumKeyboard()
	seen := map[string]bool{}
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				seen[*btn.CallbackData] = true
			}
		}
	}
	for _, want := range []string{"premium_upi", "premium_cashfree", "my_credits"} {
		if !seen[want] {
			t.Errorf("keyboard missing %q action", want)
		}
	}
}

func TestPremiumPitch(t *testing.T) {
	p := premiumPitch()
	if !strings.Contains(p, "₹199") {
		t.Errorf("pitch missing price: %q", p)
	}
	if !strings.Contains(p, "30 days") {
		t.Errorf("pitch missing duration: %q", p)
	}
}
