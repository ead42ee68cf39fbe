package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

// GeminiClient implements Completer against Google's Gemini API. It is an
// alternative provider behind the same single-attempt completion contract
// as the OpenAI-compatible client.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

// NewGeminiClient creates a Gemini-backed completion client.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: gc,
		model:  strings.TrimSpace(cfg.Model),
		log:    log.With("component", "gemini_client"),
	}, nil
}

// Complete generates one completion for the prompt. An empty candidate list
// maps to ErrNoChoices so the transformer can pick the matching fallback.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := float32(completionTemperature)

	c.log.DebugContext(ctx, "Sending Gemini completion request",
		"model", c.model,
		"prompt_preview", truncate(prompt, 100))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: completionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", ErrNoChoices
	}

	out := resp.Text()
	if out == "" {
		return "", ErrNoChoices
	}

	return out, nil
}
