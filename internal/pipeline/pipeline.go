// Package pipeline turns a raw inbound Telegram message into a finished,
// note-ready text block. Each instance is bound to an immutable settings
// snapshot and lives exactly as long as the connection that owns it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/fishyer/obsidian-telegram-inbox/internal/ai"
	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
	"github.com/fishyer/obsidian-telegram-inbox/internal/database"
	"github.com/fishyer/obsidian-telegram-inbox/internal/template"
	"github.com/fishyer/obsidian-telegram-inbox/internal/text"
)

// Pipeline filters, renders, transforms, and post-processes inbound
// messages. It reads the capture log to drop duplicates but never writes to
// storage; the caller owns note writing and capture recording.
type Pipeline struct {
	cfg         config.Config
	transformer *ai.Transformer
	store       database.Store
	log         *slog.Logger
}

// New creates a pipeline bound to the given settings snapshot.
func New(cfg config.Config, transformer *ai.Transformer, store database.Store, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		transformer: transformer,
		store:       store,
		log:         log.With("component", "pipeline"),
	}
}

// Handle processes one inbound message. It returns the finished text block
// and true when the message qualifies for capture; ineligible and duplicate
// messages return false with no AI call made. The only error it can return
// is a malformed message template, which is a configuration defect the user
// must fix.
func (p *Pipeline) Handle(ctx context.Context, msg *models.Message) (string, bool, error) {
	if msg == nil {
		return "", false, nil
	}

	body := msg.Text
	if body == "" {
		body = msg.Caption
	}

	if !p.allowed(msg.From) {
		p.log.DebugContext(ctx, "Dropping message from sender outside allow-list",
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
		return "", false, nil
	}

	marker := p.cfg.Telegram.Marker
	if marker != "" && !strings.Contains(body, marker) {
		p.log.DebugContext(ctx, "Dropping message without marker",
			"chat_id", msg.Chat.ID, "message_id", msg.ID, "marker", marker)
		return "", false, nil
	}

	// Duplicate check happens before any rendering or AI call. A capture
	// log read failure is logged and treated as unseen: an occasional
	// duplicate note beats silently dropping a message.
	seen, err := p.store.Seen(ctx, msg.Chat.ID, msg.ID)
	if err != nil {
		p.log.ErrorContext(ctx, "Capture log lookup failed, continuing", "error", err)
	} else if seen {
		p.log.DebugContext(ctx, "Dropping already captured message",
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
		return "", false, nil
	}

	data := p.deriveMessageData(msg, body)

	rendered, err := template.Render(p.cfg.Capture.MessageTemplate, data)
	if err != nil {
		return "", false, fmt.Errorf("message template: %w", err)
	}

	// The transformer gets the original message data, not the rendered
	// template, so the prompt sees the untouched text.
	result := rendered
	if p.cfg.AI.Enabled {
		result = p.transformer.Transform(ctx, data)
	}

	if p.cfg.Capture.MarkdownEscaper {
		result = text.EscapeMarkdown(result)
	}
	if p.cfg.Capture.RemoveFormatting {
		result = text.RemoveFormatting(result)
	}

	return result, true, nil
}

// allowed reports whether the sender may trigger capture. An empty
// allow-list means no restriction. Entries match the sender's username
// (with or without a leading @) or numeric user ID.
func (p *Pipeline) allowed(from *models.User) bool {
	allow := p.cfg.Telegram.AllowUsers
	if len(allow) == 0 {
		return true
	}
	if from == nil {
		return false
	}

	for _, entry := range allow {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.EqualFold(strings.TrimPrefix(entry, "@"), from.Username) {
			return true
		}
		if id, err := strconv.ParseInt(entry, 10, 64); err == nil && id == from.ID {
			return true
		}
	}

	return false
}

// deriveMessageData builds the template data for one message. With
// strip_marker enabled, the configured marker is removed from the text
// before rendering and prompting.
func (p *Pipeline) deriveMessageData(msg *models.Message, body string) template.MessageData {
	if p.cfg.Capture.StripMarker && p.cfg.Telegram.Marker != "" {
		body = strings.TrimSpace(strings.Replace(body, p.cfg.Telegram.Marker, "", 1))
	}

	var name, username string
	if msg.From != nil {
		name = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		username = msg.From.Username
	}

	return template.MessageData{
		Text:      body,
		Name:      name,
		Username:  username,
		Date:      time.Unix(int64(msg.Date), 0),
		MessageID: msg.ID,
		ChatID:    msg.Chat.ID,
	}
}
