package ai

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Telegram accepts only a small HTML tag subset in messages sent with
// ParseMode=HTML. Everything else must be unwrapped to plain text.
var telegramTags = map[string]bool{
	"b": true, "strong": true,
	"i": true, "em": true,
	"u": true, "ins": true,
	"s": true, "strike": true, "del": true,
	"code": true, "pre": true,
	"a":          true,
	"blockquote": true,
}

// RenderTelegramHTML converts model markdown output into HTML limited to the
// tags Telegram supports. On any conversion error the escaped source text is
// returned so the message still goes out.
func RenderTelegramHTML(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return html.EscapeString(markdown)
	}
	sanitized, err := sanitize(buf.String())
	if err != nil {
		return html.EscapeString(markdown)
	}
	return strings.TrimSpace(sanitized)
}

func sanitize(rawHTML string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(rawHTML), ctx)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, n := range nodes {
		emit(&out, n)
	}
	return out.String(), nil
}

func emit(out *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		out.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
		tag := n.Data
		if telegramTags[tag] {
			switch tag {
			case "a":
				href := attr(n, "href")
				out.WriteString(`<a href="` + html.EscapeString(href) + `">`)
			default:
				out.WriteString("<" + tag + ">")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				emit(out, c)
			}
			out.WriteString("</" + tag + ">")
			return
		}
		// Unsupported block elements become text with spacing.
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			emit(out, c)
		}
		switch tag {
		case "p", "div", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "br", "li":
			out.WriteString("\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			emit(out, c)
		}
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
