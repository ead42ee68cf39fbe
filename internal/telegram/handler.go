package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
	"github.com/fishyer/obsidian-telegram-inbox/internal/database"
	"github.com/fishyer/obsidian-telegram-inbox/internal/notes"
	"github.com/fishyer/obsidian-telegram-inbox/internal/pipeline"
)

const captureSaveTimeout = 5 * time.Second

// InboxDeps provides the collaborators the inbox handler hands results to.
type InboxDeps struct {
	Logger   *slog.Logger
	Config   config.Config
	Pipeline *pipeline.Pipeline
	Writer   *notes.Writer
	Store    database.Store
}

type inboxHandler struct {
	deps InboxDeps
}

// NewInboxHandler creates the default handler for inbound updates: it runs
// the message pipeline and, for qualifying messages, writes the result to
// the vault, records the capture, and optionally replies with the title.
func NewInboxHandler(deps InboxDeps) tgbot.HandlerFunc {
	return inboxHandler{deps}.Handle
}

func (h inboxHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "inbox")

	msg := update.Message
	if msg == nil {
		return
	}

	result, ok, err := deps.Pipeline.Handle(ctx, msg)
	if err != nil {
		// Template errors are configuration defects; surface them loudly
		// instead of silently dropping every message.
		log.ErrorContext(ctx, "Message pipeline failed", "error", err,
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}
	if !ok {
		return
	}

	if err := deps.Writer.Write(result, deps.Config.Capture.ReverseOrder); err != nil {
		log.ErrorContext(ctx, "Failed to write capture to vault", "error", err,
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}

	h.recordCapture(ctx, msg, result)

	log.InfoContext(ctx, "Captured message",
		"chat_id", msg.Chat.ID, "message_id", msg.ID, "bytes", len(result))

	if deps.Config.AI.Enabled && deps.Config.AI.ReplyInChat {
		h.reply(ctx, b, msg, result)
	}
}

// recordCapture marks the message in the capture log so it is never written
// twice. The note is already on disk at this point, so a failure here only
// risks a duplicate, never a loss.
func (h inboxHandler) recordCapture(ctx context.Context, msg *models.Message, title string) {
	saveCtx, cancel := context.WithTimeout(ctx, captureSaveTimeout)
	defer cancel()

	var sender string
	if msg.From != nil {
		sender = msg.From.Username
	}

	capture := &database.Capture{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Sender:    sender,
		Title:     title,
	}

	if err := h.deps.Store.SaveCapture(saveCtx, capture); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to record capture", "error", err,
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
	}
}

func (h inboxHandler) reply(ctx context.Context, b *tgbot.Bot, msg *models.Message, title string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   title,
		ReplyParameters: &models.ReplyParameters{
			MessageID: msg.ID,
		},
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to reply with title", "error", err,
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
	}
}
