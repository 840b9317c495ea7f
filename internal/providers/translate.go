package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/gstyle/go-shop-backend/internal/config"
)

// TranslateClient calls the external text-generation provider for query
// rewriting (Persian → Turkish search terms) and product-title translation
// (Turkish → Persian).
//
// Every method is a capability-abstracted optional enrichment: on a missing
// API key, a provider error, or an empty completion the input comes back
// unchanged. Failure is definitionally equivalent to "no enrichment
// available" and is never surfaced to callers.
type TranslateClient struct {
	cfg  config.TranslateConfig
	http *http.Client
}

// NewTranslateClient builds a client from config.
func NewTranslateClient(cfg config.TranslateConfig) *TranslateClient {
	return &TranslateClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// RewriteQuery rewrites a user search query into Turkish retail search terms
// the shopping provider matches well. Pass-through on any failure.
func (c *TranslateClient) RewriteQuery(ctx context.Context, query string) string {
	prompt := "Rewrite the following product search query as concise Turkish retail " +
		"search terms. Reply with the terms only, no explanation.\n\n" + query
	return c.tryComplete(ctx, prompt, query)
}

// TranslateTitle renders a product title into Persian for display.
// Pass-through on any failure.
func (c *TranslateClient) TranslateTitle(ctx context.Context, title string) string {
	prompt := "Translate the following product title into natural Persian. " +
		"Reply with the translation only.\n\n" + title
	return c.tryComplete(ctx, prompt, title)
}

// chat-completions wire types, kept minimal.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// tryComplete runs one completion and falls back to fallback on any failure.
func (c *TranslateClient) tryComplete(ctx context.Context, prompt, fallback string) string {
	if c.cfg.APIKey == "" {
		return fallback
	}

	payload, err := jsoniter.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return fallback
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("text-generation call failed, passing input through")
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Err(fmt.Errorf("status %d", resp.StatusCode)).Msg("text-generation call failed, passing input through")
		return fallback
	}

	var body chatResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Choices) == 0 {
		return fallback
	}
	out := strings.TrimSpace(body.Choices[0].Message.Content)
	if out == "" {
		return fallback
	}
	return out
}
