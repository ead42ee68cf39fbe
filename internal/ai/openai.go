package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

const (
	completionTemperature = 0.7
	completionMaxTokens   = 100
	completionTimeout     = 30 * time.Second
	responseBodyLimit     = 1 << 20
)

// OpenAIClient calls an OpenAI-compatible chat completions endpoint. The
// endpoint URL, API key, and model are taken verbatim (trimmed) from the
// settings snapshot; the URL must be the full completions URL.
type OpenAIClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewOpenAIClient creates a completion client bound to the given AI settings.
func NewOpenAIClient(cfg config.AIConfig, log *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		url:        strings.TrimSpace(cfg.BaseURL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		httpClient: &http.Client{Timeout: completionTimeout},
		log:        log.With("component", "openai_client"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the first choice's
// content. It makes a single attempt: a non-2xx status becomes a
// StatusError, a 2xx response without choices becomes ErrNoChoices, and
// transport or decode failures are returned as-is.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.DebugContext(ctx, "Sending completion request",
		"url", c.url,
		"model", c.model,
		"prompt_preview", truncate(prompt, 100))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", ErrNoChoices
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
