package ai

import (
	"context"
	"strings"
	"testing"
)

func TestRenderTelegramHTML_Bold(t *testing.T) {
	out := RenderTelegramHTML("This is **important** text")
	if !strings.Contains(out, "<strong>important</strong>") {
		t.Errorf("expected <strong> markup, got %q", out)
	}
}

func TestRenderTelegramHTML_HeadingsUnwrapped(t *testing.T) {
	out := RenderTelegramHTML("# Hook\n\nSay something catchy.")
	if strings.Contains(out, "<h1>") {
		t.Errorf("h1 must not survive sanitization: %q", out)
	}
	if !strings.Contains(out, "Hook") {
		t.Errorf("heading text must be kept: %q", out)
	}
	if !strings.Contains(out, "Say something catchy.") {
		t.Errorf("body text must be kept: %q", out)
	}
}

func TestRenderTelegramHTML_LinksKept(t *testing.T) {
	out := RenderTelegramHTML("see [docs](https://example.com/page)")
	if !strings.Contains(out, `<a href="https://example.com/page">docs</a>`) {
		t.Errorf("expected anchor preserved, got %q", out)
	}
}

func TestRenderTelegramHTML_CodeBlocks(t *testing.T) {
	out := RenderTelegramHTML("use `go build` here")
	if !strings.Contains(out, "<code>go build</code>") {
		t.Errorf("expected inline code preserved, got %q", out)
	}
}

func TestRenderTelegramHTML_DropsRawHTML(t *testing.T) {
	// goldmark omits raw HTML by default; nothing executable may leak through.
	out := RenderTelegramHTML("tags like <script>alert(1)</script> are data")
	if strings.Contains(out, "<script>") {
		t.Errorf("raw script tag must not survive: %q", out)
	}
	if !strings.Contains(out, "tags like") || !strings.Contains(out, "are data") {
		t.Errorf("surrounding text must be kept: %q", out)
	}
}

func TestClientDisabled(t *testing.T) {
	c := &Client{}
	if c.Enabled() {
		t.Error("zero client must be disabled")
	}
	if _, err := c.Reply(context.Background(), "hi"); err == nil {
		t.Error("disabled client must return an error")
	}
}
