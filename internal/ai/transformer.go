package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
	"github.com/fishyer/obsidian-telegram-inbox/internal/template"
)

// Fallback title formats. The tag distinguishes an endpoint that answered
// without choices (#未知) from one that failed outright (#异常) so an
// operator can triage captured notes later.
const (
	fallbackNoChoices = "#未知 Telegram Message from %s"
	fallbackFailure   = "#异常 Telegram Message from %s"
)

// Transformer converts a message into a tagged title line. It is bound to
// an immutable AI settings snapshot and is safe for concurrent use across
// independent messages.
type Transformer struct {
	cfg       config.AIConfig
	completer Completer
	log       *slog.Logger
}

// NewTransformer creates a transformer over the given completion client.
// The completer may be nil when no usable provider could be constructed;
// Transform then behaves as if the API key were missing.
func NewTransformer(cfg config.AIConfig, completer Completer, log *slog.Logger) *Transformer {
	return &Transformer{
		cfg:       cfg,
		completer: completer,
		log:       log.With("component", "ai_transformer"),
	}
}

// Transform produces the title for one message. It never fails: any error
// in the AI path is converted to a deterministic fallback string, and the
// raw message text is returned unchanged when the feature is disabled or
// unconfigured. Exactly one completion attempt is made per call.
func (t *Transformer) Transform(ctx context.Context, data template.MessageData) string {
	if !t.cfg.Enabled {
		return data.Text
	}

	if strings.TrimSpace(t.cfg.APIKey) == "" || t.completer == nil {
		t.log.WarnContext(ctx, "AI transformation enabled but API key not configured")
		return data.Text
	}

	promptTemplate := strings.TrimSpace(t.cfg.Prompt)
	if promptTemplate == "" {
		promptTemplate = defaultPrompt
	}

	prompt, err := template.Render(promptTemplate, data)
	if err != nil {
		// A broken prompt template is a configuration defect, not a
		// transient AI failure; fall back to the raw text so capture
		// still succeeds.
		t.log.ErrorContext(ctx, "Failed to render AI prompt template", "error", err)
		return data.Text
	}

	out, err := t.completer.Complete(ctx, prompt)
	switch {
	case err == nil:
		title := strings.TrimSpace(out)
		t.log.DebugContext(ctx, "AI transformed message", "title", title)
		return title
	case errors.Is(err, ErrNoChoices):
		t.log.WarnContext(ctx, "AI response has no choices", "sender", data.Name)
		return fmt.Sprintf(fallbackNoChoices, data.Name)
	default:
		t.log.ErrorContext(ctx, "Failed to transform message with AI", "error", err, "sender", data.Name)
		return fmt.Sprintf(fallbackFailure, data.Name)
	}
}
