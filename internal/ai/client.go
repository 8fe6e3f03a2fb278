package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

// ErrUnavailable is returned when no OpenAI key is configured.
var ErrUnavailable = errors.New("ai unavailable: OPENAI_API_KEY not set")

const (
	maxTokens   = 800
	temperature = 0.2
	retries     = 2
)

const assistantPersona = "You are a powerful, helpful AI assistant. Answer succinctly but fully."

const scriptPersona = "You are a professional video script writer for social media creators. " +
	"Write a complete short-form video script with a hook, main segments and a call to action. " +
	"Use markdown headings for sections."

const debugPersona = "You are an assistant that suggests debugging steps for Go service errors. " +
	"Provide a short debugging suggestion."

// Client wraps the OpenAI chat API. A nil inner client means AI features
// are disabled and every call returns ErrUnavailable.
type Client struct {
	api   *openai.Client
	model string
}

// NewFromConfig builds a client from the global config. Returns a disabled
// client when no API key is configured.
func NewFromConfig() *Client {
	if config.Cfg.OpenAIAPIKey == "" {
		return &Client{}
	}
	return &Client{
		api:   openai.NewClient(config.Cfg.OpenAIAPIKey),
		model: config.Cfg.OpenAIModel,
	}
}

// Enabled reports whether AI calls can be made.
func (c *Client) Enabled() bool { return c.api != nil }

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.api == nil {
		return "", ErrUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			logger.Warn("ai: completion failed", map[string]interface{}{
				"attempt": attempt + 1, "error": err.Error(),
			})
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty completion response")
			continue
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("ai: completion failed after %d attempts: %w", retries+1, lastErr)
}

// Reply answers a free-form chat prompt.
func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, assistantPersona, prompt)
}

// Script generates a creator video script for the given topic, optionally in
// the requested style or tone.
func (c *Client) Script(ctx context.Context, topic, style string) (string, error) {
	prompt := "Write a video script about: " + topic
	if style != "" {
		prompt += "\nStyle: " + style
	}
	return c.complete(ctx, scriptPersona, prompt)
}

// Summarize condenses extracted document text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	const limit = 12000
	if len(text) > limit {
		text = text[:limit]
	}
	return c.complete(ctx, assistantPersona, "Summarize the following document:\n\n"+text)
}

// DebugSuggestion asks for a short debugging hint for a failed handler.
// Best effort: callers log the result, they never block on it.
func (c *Client) DebugSuggestion(ctx context.Context, where, errText string) (string, error) {
	prompt := fmt.Sprintf("Error in %s: %s\nProvide a short debugging suggestion.", where, errText)
	return c.complete(ctx, debugPersona, prompt)
}
